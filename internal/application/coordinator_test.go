package application_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"slack-gpt-sessions/internal/application"
	"slack-gpt-sessions/internal/config"
	"slack-gpt-sessions/internal/domain"
	"slack-gpt-sessions/internal/domain/model"
	"slack-gpt-sessions/internal/domain/ports/adapter"
	"slack-gpt-sessions/internal/infra/logging"
	"slack-gpt-sessions/internal/usecase"
)

const (
	focus = "C0FOCUS"
	botU  = "UBOT"
	botB  = "BBOT"
)

// ---- Fakes ----

type memTurns struct {
	mu      sync.Mutex
	seq     int64
	turns   []model.Turn
	appends int
	// failOn makes the n-th Append (1-based) fail with a store error.
	failOn int
}

func (m *memTurns) Append(ctx context.Context, t *model.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appends++
	if m.failOn > 0 && m.appends == m.failOn {
		return domain.NewStoreError("append turn", errors.New("deadlock found"))
	}
	m.seq++
	t.Seq = m.seq
	m.turns = append(m.turns, *t)
	return nil
}

func (m *memTurns) Recent(ctx context.Context, sessionID string, limit int) ([]model.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Turn
	for _, t := range m.turns {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	if len(out) > limit {
		out = out[:limit]
	}
	return model.Chronological(out), nil
}

type memUsers struct {
	mu  sync.Mutex
	m   map[string]model.User
	err error
}

func (m *memUsers) Register(ctx context.Context, u *model.User) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.m[u.ID]; !ok {
		m.m[u.ID] = *u
	}
	return nil
}

func (m *memUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.m[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

type memTokens struct {
	mu    sync.Mutex
	total int64
	incs  []int64
}

func (m *memTokens) Increment(ctx context.Context, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total += delta
	m.incs = append(m.incs, delta)
	return nil
}

func (m *memTokens) Total(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total, nil
}

type scriptedAI struct {
	mu    sync.Mutex
	reply string
	used  int
	err   error
	calls [][]adapter.Message
}

func (s *scriptedAI) Name() string  { return "scripted" }
func (s *scriptedAI) Model() string { return "gpt-3.5-turbo" }
func (s *scriptedAI) CountTokens(ctx context.Context, m []adapter.Message) (int, error) {
	return 0, nil
}
func (s *scriptedAI) ChatWithUsage(ctx context.Context, m []adapter.Message) (string, adapter.Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, m)
	if s.err != nil {
		return "", adapter.Usage{}, s.err
	}
	return s.reply, adapter.Usage{TotalTokens: s.used}, nil
}

type post struct {
	channel, text, thread string
}

type recordingMessenger struct {
	mu     sync.Mutex
	posts  []post
	err    error
	onPost func(ctx context.Context)
}

func (r *recordingMessenger) PostMessage(ctx context.Context, channel, text, threadTS string) (string, error) {
	if r.onPost != nil {
		r.onPost(ctx)
	}
	if r.err != nil {
		return "", r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, post{channel, text, threadTS})
	return fmt.Sprintf("1700000000.%06d", len(r.posts)), nil
}

type onceDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *onceDeduper) Seen(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[key] {
		return true, nil
	}
	d.seen[key] = true
	return false, nil
}

type harness struct {
	coord  *application.Coordinator
	turns  *memTurns
	users  *memUsers
	tokens *memTokens
	ai     *scriptedAI
	out    *recordingMessenger
}

func newHarness(t *testing.T, dedup application.Deduper) *harness {
	t.Helper()
	logger := logging.New(config.LogConfig{Level: "error"}, false)
	h := &harness{
		turns:  &memTurns{},
		users:  &memUsers{m: map[string]model.User{}},
		tokens: &memTokens{},
		ai:     &scriptedAI{reply: "hi there", used: 42},
		out:    &recordingMessenger{},
	}
	id := model.Identity{UserID: botU, BotID: botB}
	chat := usecase.NewChatUseCase(h.turns, h.ai, id, 10, logger, true)
	users := usecase.NewUserUseCase(h.users, logger)
	usage := usecase.NewUsageUseCase(h.tokens, 0.002, logger)
	h.coord = application.NewCoordinator(chat, users, usage, h.out, dedup, application.Settings{
		FocusChannel:   focus,
		StartCommand:   "/gpt_start",
		SessionTrigger: "!session",
		CostCommand:    "!cost",
		Identity:       id,
	}, logger)
	return h
}

// ---- Tests ----

func TestClassify(t *testing.T) {
	h := newHarness(t, nil)
	cases := []struct {
		name string
		ev   model.MessageEvent
		want application.Kind
	}{
		{"other channel", model.MessageEvent{Channel: "C0THER", ThreadTS: "T1", UserID: "U1", Text: "hi", TS: "1"}, application.KindIgnored},
		{"top level chatter", model.MessageEvent{Channel: focus, UserID: "U1", Text: "hi", TS: "1"}, application.KindIgnored},
		{"thread reply", model.MessageEvent{Channel: focus, ThreadTS: "T1", UserID: "U1", Text: "hi", TS: "2"}, application.KindTurn},
		{"own reply in thread", model.MessageEvent{Channel: focus, ThreadTS: "T1", UserID: botU, BotID: botB, Text: "answer", TS: "3"}, application.KindSelfEcho},
		{"own reply bot id only", model.MessageEvent{Channel: focus, ThreadTS: "T1", BotID: botB, Text: "answer", TS: "3"}, application.KindSelfEcho},
		{"other bot in thread", model.MessageEvent{Channel: focus, ThreadTS: "T1", BotID: "BOTHER", Text: "hello", TS: "4"}, application.KindTurn},
		{"session trigger", model.MessageEvent{Channel: focus, BotID: botB, Text: "!session for { alice } ...", TS: "5"}, application.KindSessionStart},
		{"trigger by human", model.MessageEvent{Channel: focus, UserID: "U1", Text: "!session for { alice } ...", TS: "6"}, application.KindIgnored},
		{"cost query", model.MessageEvent{Channel: focus, UserID: "U1", Text: "!cost", TS: "7"}, application.KindCostQuery},
		{"cost query in thread is a turn", model.MessageEvent{Channel: focus, ThreadTS: "T1", UserID: "U1", Text: "!cost", TS: "8"}, application.KindTurn},
		{"own cost query in thread", model.MessageEvent{Channel: focus, ThreadTS: "T1", BotID: botB, Text: "!cost", TS: "8"}, application.KindCostQuery},
		{"cost with padding", model.MessageEvent{Channel: focus, UserID: "U1", Text: " !cost ", TS: "9"}, application.KindIgnored},
		{"cost prefix only", model.MessageEvent{Channel: focus, UserID: "U1", Text: "!cost please", TS: "9"}, application.KindIgnored},
		{"edited message", model.MessageEvent{Channel: focus, ThreadTS: "T1", UserID: "U1", Text: "hi", SubType: "message_changed", TS: "10"}, application.KindIgnored},
		{"blank thread reply", model.MessageEvent{Channel: focus, ThreadTS: "T1", UserID: "U1", Text: "  ", TS: "11"}, application.KindIgnored},
		{"foreign bot id with own user id", model.MessageEvent{Channel: focus, ThreadTS: "T1", UserID: botU, BotID: "BOTHER", Text: "x", TS: "12"}, application.KindSelfEcho},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := h.coord.Classify(tc.ev); got != tc.want {
				t.Fatalf("Classify = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestHandleMessage_FirstTurn(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	ev := model.MessageEvent{Channel: focus, ThreadTS: "T1", UserID: "U1", Text: "hello", TS: "1700000001.000100"}
	if err := h.coord.HandleMessage(ctx, ev); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if len(h.turns.turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(h.turns.turns))
	}
	u, a := h.turns.turns[0], h.turns.turns[1]
	if u.SessionID != "T1" || u.UserID != "U1" || u.Role != model.RoleUser || u.Content != "hello" {
		t.Fatalf("unexpected user turn: %+v", u)
	}
	if a.SessionID != "T1" || a.UserID != botB || a.Role != model.RoleAssistant || a.Content != "hi there" {
		t.Fatalf("unexpected assistant turn: %+v", a)
	}
	if len(h.ai.calls) != 1 || len(h.ai.calls[0]) != 1 || h.ai.calls[0][0].Content != "hello" {
		t.Fatalf("unexpected completion history: %+v", h.ai.calls)
	}
	if len(h.out.posts) != 1 {
		t.Fatalf("expected one post, got %d", len(h.out.posts))
	}
	p := h.out.posts[0]
	if p.channel != focus || p.thread != "T1" || !strings.Contains(p.text, "hi there") || !strings.Contains(p.text, "{tokens used for this message: 42}") {
		t.Fatalf("unexpected post: %+v", p)
	}
	if h.tokens.total != 42 || len(h.tokens.incs) != 1 {
		t.Fatalf("expected one increment of 42, got %+v", h.tokens.incs)
	}
}

func TestHandleMessage_CompletionFailureIsSilent(t *testing.T) {
	h := newHarness(t, nil)
	h.ai.err = fmt.Errorf("connection reset: %w", domain.ErrTransport)

	ev := model.MessageEvent{Channel: focus, ThreadTS: "T1", UserID: "U1", Text: "hello", TS: "1"}
	err := h.coord.HandleMessage(context.Background(), ev)
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if len(h.turns.turns) != 1 || h.turns.turns[0].Role != model.RoleUser {
		t.Fatalf("expected only the user turn, got %+v", h.turns.turns)
	}
	if len(h.out.posts) != 0 {
		t.Fatalf("no reply expected, got %+v", h.out.posts)
	}
	if h.tokens.total != 0 {
		t.Fatalf("token counter must not move, got %d", h.tokens.total)
	}
}

func TestHandleMessage_SelfLoopGuard(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	if err := h.coord.HandleMessage(ctx, model.MessageEvent{Channel: focus, ThreadTS: "T1", UserID: "U1", Text: "hello", TS: "1"}); err != nil {
		t.Fatal(err)
	}
	// the bot's own reply comes back as an event
	echo := model.MessageEvent{Channel: focus, ThreadTS: "T1", UserID: botU, BotID: botB, Text: h.out.posts[0].text, TS: "2"}
	if err := h.coord.HandleMessage(ctx, echo); err != nil {
		t.Fatal(err)
	}
	for _, tr := range h.turns.turns {
		if tr.Role == model.RoleUser && (tr.UserID == botU || tr.UserID == botB) {
			t.Fatalf("bot echo stored as user turn: %+v", tr)
		}
	}
	if len(h.ai.calls) != 1 {
		t.Fatalf("echo must not trigger completion, calls=%d", len(h.ai.calls))
	}
}

func TestHandleMessage_CostQuery(t *testing.T) {
	h := newHarness(t, nil)
	h.tokens.total = 1500

	if err := h.coord.HandleMessage(context.Background(), model.MessageEvent{Channel: focus, UserID: "U1", Text: "!cost", TS: "1"}); err != nil {
		t.Fatal(err)
	}
	if len(h.out.posts) != 1 {
		t.Fatalf("expected one post, got %d", len(h.out.posts))
	}
	p := h.out.posts[0]
	if p.thread != "" || !strings.Contains(p.text, "1500 tokens") || !strings.Contains(p.text, "$0.003") {
		t.Fatalf("unexpected cost post: %+v", p)
	}
	if len(h.turns.turns) != 0 || len(h.ai.calls) != 0 {
		t.Fatal("cost query must not create turns or call completion")
	}
}

func TestSessionStartChain(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	cmd := model.SlashCommand{Command: "/gpt_start", ChannelID: focus, UserID: "U1", UserName: "alice"}
	if err := h.coord.HandleCommand(ctx, cmd); err != nil {
		t.Fatalf("HandleCommand: %v", err)
	}
	if _, ok := h.users.m["U1"]; !ok {
		t.Fatal("user not registered")
	}
	if len(h.out.posts) != 1 || h.out.posts[0].text != "!session for { alice } ..." || h.out.posts[0].thread != "" {
		t.Fatalf("unexpected session post: %+v", h.out.posts)
	}

	// the session post is delivered back to the bot
	trigger := model.MessageEvent{Channel: focus, UserID: botU, BotID: botB, Text: h.out.posts[0].text, TS: "1700000000.000001"}
	if err := h.coord.HandleMessage(ctx, trigger); err != nil {
		t.Fatal(err)
	}
	if len(h.out.posts) != 2 {
		t.Fatalf("expected prompt post, got %+v", h.out.posts)
	}
	if p := h.out.posts[1]; p.text != "what would you like to ask?" || p.thread != trigger.TS {
		t.Fatalf("unexpected prompt: %+v", p)
	}
	if len(h.turns.turns) != 0 {
		t.Fatal("session start must not store turns")
	}
}

func TestHandleCommand_KnownUserStartsAnotherSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	cmd := model.SlashCommand{Command: "/gpt_start", ChannelID: focus, UserID: "U1", UserName: "alice"}
	for i := 0; i < 2; i++ {
		if err := h.coord.HandleCommand(ctx, cmd); err != nil {
			t.Fatalf("HandleCommand #%d: %v", i, err)
		}
	}
	if len(h.users.m) != 1 || len(h.out.posts) != 2 {
		t.Fatalf("want one user and two session posts: users=%d posts=%d", len(h.users.m), len(h.out.posts))
	}
}

func TestHandleCommand_IgnoresOtherChannels(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.coord.HandleCommand(context.Background(), model.SlashCommand{Command: "/gpt_start", ChannelID: "C0THER", UserID: "U1", UserName: "alice"}); err != nil {
		t.Fatal(err)
	}
	if len(h.users.m) != 0 || len(h.out.posts) != 0 {
		t.Fatal("command outside the focus channel must be ignored")
	}
}

func TestHandleCommand_RegistrationFailurePostsNothing(t *testing.T) {
	h := newHarness(t, nil)
	h.users.err = domain.NewStoreError("register", errors.New("down"))
	err := h.coord.HandleCommand(context.Background(), model.SlashCommand{Command: "/gpt_start", ChannelID: focus, UserID: "U1", UserName: "alice"})
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	if len(h.out.posts) != 0 {
		t.Fatal("no post expected after a failed registration")
	}
}

func TestHandleMessage_Dedup(t *testing.T) {
	h := newHarness(t, &onceDeduper{seen: map[string]bool{}})
	ev := model.MessageEvent{Channel: focus, ThreadTS: "T1", UserID: "U1", Text: "hello", TS: "1"}
	for i := 0; i < 3; i++ {
		if err := h.coord.HandleMessage(context.Background(), ev); err != nil {
			t.Fatal(err)
		}
	}
	if len(h.ai.calls) != 1 || len(h.out.posts) != 1 {
		t.Fatalf("redelivery handled more than once: calls=%d posts=%d", len(h.ai.calls), len(h.out.posts))
	}
}

func TestHandleMessage_PostFailureStillCountsTokens(t *testing.T) {
	h := newHarness(t, nil)
	h.out.err = errors.New("channel_not_found")
	err := h.coord.HandleMessage(context.Background(), model.MessageEvent{Channel: focus, ThreadTS: "T1", UserID: "U1", Text: "hello", TS: "1"})
	if err == nil {
		t.Fatal("expected post error")
	}
	if h.tokens.total != 42 {
		t.Fatalf("spent tokens must be recorded, got %d", h.tokens.total)
	}
}

func TestHandleMessage_AssistantStoreFailureStillRepliesAndCounts(t *testing.T) {
	h := newHarness(t, nil)
	h.turns.failOn = 2

	ev := model.MessageEvent{Channel: focus, ThreadTS: "T1", UserID: "U1", Text: "hello", TS: "1"}
	if err := h.coord.HandleMessage(context.Background(), ev); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(h.turns.turns) != 1 || h.turns.turns[0].Role != model.RoleUser {
		t.Fatalf("only the user turn should be stored, got %+v", h.turns.turns)
	}
	if len(h.out.posts) != 1 || h.out.posts[0].thread != "T1" || !strings.Contains(h.out.posts[0].text, "hi there") {
		t.Fatalf("reply must still be posted, got %+v", h.out.posts)
	}
	if h.tokens.total != 42 {
		t.Fatalf("tokens must still be counted, got %d", h.tokens.total)
	}
}

func TestHandleMessage_UserTurnStoreFailureStopsChain(t *testing.T) {
	h := newHarness(t, nil)
	h.turns.failOn = 1

	ev := model.MessageEvent{Channel: focus, ThreadTS: "T1", UserID: "U1", Text: "hello", TS: "1"}
	if err := h.coord.HandleMessage(context.Background(), ev); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	if len(h.ai.calls) != 0 || len(h.out.posts) != 0 || h.tokens.total != 0 {
		t.Fatalf("chain must stop: calls=%d posts=%d tokens=%d", len(h.ai.calls), len(h.out.posts), h.tokens.total)
	}
}

func TestHandleMessage_CostQueryInThread(t *testing.T) {
	h := newHarness(t, nil)
	h.tokens.total = 958

	ev := model.MessageEvent{Channel: focus, ThreadTS: "T1", UserID: "U1", Text: "!cost", TS: "1"}
	if err := h.coord.HandleMessage(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	if len(h.turns.turns) != 2 || h.turns.turns[0].Content != "!cost" {
		t.Fatalf("thread cost query must also be a turn, got %+v", h.turns.turns)
	}
	if len(h.out.posts) != 2 {
		t.Fatalf("expected reply and cost posts, got %+v", h.out.posts)
	}
	if p := h.out.posts[0]; p.thread != "T1" {
		t.Fatalf("first post should be the thread reply: %+v", p)
	}
	if p := h.out.posts[1]; p.thread != "" || !strings.Contains(p.text, "1000 tokens") || !strings.Contains(p.text, "$0.002") {
		t.Fatalf("unexpected cost post: %+v", p)
	}
}

func TestHandleMessage_KeepsGatewayTraceID(t *testing.T) {
	h := newHarness(t, nil)
	var seen string
	h.out.onPost = func(ctx context.Context) { seen = logging.TraceID(ctx) }

	ctx := logging.WithTraceID(context.Background(), "req-123")
	if err := h.coord.HandleMessage(ctx, model.MessageEvent{Channel: focus, UserID: "U1", Text: "!cost", TS: "1"}); err != nil {
		t.Fatal(err)
	}
	if seen != "req-123" {
		t.Fatalf("trace id = %q, want req-123", seen)
	}

	if err := h.coord.HandleMessage(context.Background(), model.MessageEvent{Channel: focus, UserID: "U1", Text: "!cost", TS: "2"}); err != nil {
		t.Fatal(err)
	}
	if seen == "" || seen == "req-123" {
		t.Fatalf("expected a fresh trace id, got %q", seen)
	}
}

func TestCostText(t *testing.T) {
	got := application.CostText(model.NewCostReport(0, 0.002))
	if got != "0 tokens have been stored in the database. \n\nthis roughy equates to a total price of $0" {
		t.Fatalf("unexpected text: %q", got)
	}
}
