package model

import "strings"

// MessageEvent is an inbound channel message as delivered by the gateway.
type MessageEvent struct {
	Channel  string
	Text     string
	UserID   string
	BotID    string
	ThreadTS string
	TS       string
	SubType  string
}

// IsBotAuthor reports whether the platform flagged the message as bot-authored.
func (e MessageEvent) IsBotAuthor() bool { return e.BotID != "" }

func (e MessageEvent) InThread() bool { return e.ThreadTS != "" }

// DedupKey identifies a delivery of the same message across redeliveries.
func (e MessageEvent) DedupKey() string { return e.Channel + ":" + e.TS }

// hiddenSubtypes carry no new user text (edits, deletions, membership noise).
var hiddenSubtypes = map[string]struct{}{
	"message_changed": {},
	"message_deleted": {},
	"message_replied": {},
	"channel_join":    {},
	"channel_leave":   {},
	"channel_topic":   {},
	"channel_purpose": {},
	"channel_name":    {},
	"group_join":      {},
	"group_leave":     {},
	"pinned_item":     {},
	"unpinned_item":   {},
}

func (e MessageEvent) IsHidden() bool {
	_, ok := hiddenSubtypes[strings.TrimSpace(e.SubType)]
	return ok
}

// SlashCommand is a command invocation (e.g. /gpt_start).
type SlashCommand struct {
	Command   string
	ChannelID string
	UserID    string
	UserName  string
	Text      string
}
