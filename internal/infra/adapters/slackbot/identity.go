package slackbot

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"slack-gpt-sessions/internal/domain/model"
)

// ResolveIdentity fills the bot's user and bot ids from auth.test when the
// configuration leaves them empty. Configured values win.
func ResolveIdentity(ctx context.Context, api *slack.Client, configured model.Identity) (model.Identity, error) {
	if configured.UserID != "" && configured.BotID != "" {
		return configured, nil
	}
	resp, err := api.AuthTestContext(ctx)
	if err != nil {
		return configured, fmt.Errorf("slack auth.test: %w", err)
	}
	id := configured
	if id.UserID == "" {
		id.UserID = resp.UserID
	}
	if id.BotID == "" {
		id.BotID = resp.BotID
	}
	if id.UserID == "" && id.BotID == "" {
		return id, fmt.Errorf("slack auth.test returned no bot identity")
	}
	return id, nil
}
