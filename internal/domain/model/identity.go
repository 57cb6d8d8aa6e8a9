package model

// Identity is how the bot appears on the messaging platform. Slack stamps
// the bot's own posts with both a bot id (B...) and a bot user id (U...).
type Identity struct {
	UserID string
	BotID  string
}

// IsOwn reports whether authorID belongs to the bot.
func (i Identity) IsOwn(authorID string) bool {
	if authorID == "" {
		return false
	}
	return authorID == i.UserID || authorID == i.BotID
}

// AuthorID is the id used when the bot authors an assistant turn.
func (i Identity) AuthorID() string {
	if i.BotID != "" {
		return i.BotID
	}
	return i.UserID
}
