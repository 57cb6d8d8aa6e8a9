package application

import (
	"strconv"

	"slack-gpt-sessions/internal/domain/model"
	"slack-gpt-sessions/internal/infra/i18n"
)

var catalog = i18n.MustDefault()

// AskPrompt opens the thread under a session-start post.
func AskPrompt() string { return catalog.T("ask_prompt") }

// SessionStartText is the channel post the bot makes after a user registers.
// The bot later sees this post and opens a thread under it.
func SessionStartText(trigger, userName string) string {
	return catalog.T("session_start", trigger, userName)
}

// ReplyText appends the per-message token footer to a completion reply.
// The reply is passed through untouched.
func ReplyText(reply string, tokens int) string {
	return catalog.T("reply_footer", reply, tokens)
}

// CostText renders the running token total and its dollar estimate.
func CostText(r model.CostReport) string {
	return catalog.T("cost_report", r.Tokens, strconv.FormatFloat(r.USD, 'f', -1, 64))
}
