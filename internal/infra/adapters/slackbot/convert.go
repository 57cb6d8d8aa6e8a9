package slackbot

import (
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"slack-gpt-sessions/internal/domain/model"
)

// FromMessageEvent maps a Slack message event onto the domain event.
func FromMessageEvent(ev *slackevents.MessageEvent) model.MessageEvent {
	if ev == nil {
		return model.MessageEvent{}
	}
	return model.MessageEvent{
		Channel:  ev.Channel,
		Text:     ev.Text,
		UserID:   ev.User,
		BotID:    ev.BotID,
		ThreadTS: ev.ThreadTimeStamp,
		TS:       ev.TimeStamp,
		SubType:  ev.SubType,
	}
}

func FromSlashCommand(c slack.SlashCommand) model.SlashCommand {
	return model.SlashCommand{
		Command:   c.Command,
		ChannelID: c.ChannelID,
		UserID:    c.UserID,
		UserName:  c.UserName,
		Text:      c.Text,
	}
}
