package flow

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/intakebot/internal/domain"
	"github.com/m3rciful/intakebot/internal/richtext"
	"github.com/m3rciful/intakebot/internal/session"
	"github.com/m3rciful/intakebot/internal/storage"
)

type sentMsg struct {
	ChatID int64
	Msg    Outgoing
}

type editedMsg struct {
	Ref MessageRef
	Msg Outgoing
}

type keyboardEdit struct {
	Ref MessageRef
	KB  *Keyboard
}

type answered struct {
	ID     string
	Notice string
	Alert  bool
}

type fakeTransport struct {
	mu        sync.Mutex
	sends     []sentMsg
	edits     []editedMsg
	kbEdits   []keyboardEdit
	answers   []answered
	failSend  map[int64]bool
	failPhoto bool
	panics    int
}

func (f *fakeTransport) Send(_ context.Context, chatID int64, msg Outgoing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics > 0 {
		f.panics--
		panic("transport exploded")
	}
	if f.failSend[chatID] {
		return &DeliveryError{Op: "send", Err: errors.New("forbidden: bot was blocked by the user")}
	}
	if f.failPhoto && msg.PhotoPath != "" {
		return &DeliveryError{Op: "send photo", Err: errors.New("file not found")}
	}
	f.sends = append(f.sends, sentMsg{ChatID: chatID, Msg: msg})
	return nil
}

func (f *fakeTransport) Edit(_ context.Context, ref MessageRef, msg Outgoing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, editedMsg{Ref: ref, Msg: msg})
	return nil
}

func (f *fakeTransport) EditKeyboard(_ context.Context, ref MessageRef, kb *Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kbEdits = append(f.kbEdits, keyboardEdit{Ref: ref, KB: kb})
	return nil
}

func (f *fakeTransport) Answer(_ context.Context, id, notice string, alert bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, answered{ID: id, Notice: notice, Alert: alert})
	return nil
}

func (f *fakeTransport) sentTo(chatID int64) []Outgoing {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Outgoing
	for _, s := range f.sends {
		if s.ChatID == chatID {
			out = append(out, s.Msg)
		}
	}
	return out
}

func (f *fakeTransport) last(t *testing.T, chatID int64) Outgoing {
	t.Helper()
	msgs := f.sentTo(chatID)
	require.NotEmpty(t, msgs, "nothing sent to %d", chatID)
	return msgs[len(msgs)-1]
}

func (f *fakeTransport) lastEdit(t *testing.T) editedMsg {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.edits)
	return f.edits[len(f.edits)-1]
}

func (f *fakeTransport) lastAnswer(t *testing.T) answered {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.answers)
	return f.answers[len(f.answers)-1]
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []sentMsg
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, chatID int64, msg Outgoing) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.msgs = append(n.msgs, sentMsg{ChatID: chatID, Msg: msg})
	return nil
}

type fakeGateway struct {
	mu            sync.Mutex
	users         map[int64]domain.User
	requests      []domain.Request
	admins        map[int64]bool
	failUser      error
	failRequest   error
	failLookup    error
	failListUsers error
}

var _ storage.Gateway = (*fakeGateway)(nil)

func newFakeGateway() *fakeGateway {
	return &fakeGateway{users: map[int64]domain.User{}, admins: map[int64]bool{}}
}

func (g *fakeGateway) InsertUserIfAbsent(_ context.Context, u domain.User) (storage.InsertResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failUser != nil {
		return 0, g.failUser
	}
	if _, ok := g.users[u.ID]; ok {
		return storage.AlreadyExists, nil
	}
	g.users[u.ID] = u
	return storage.Inserted, nil
}

func (g *fakeGateway) InsertRequest(_ context.Context, r domain.Request) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failRequest != nil {
		return 0, g.failRequest
	}
	r.ID = int64(len(g.requests) + 1)
	g.requests = append(g.requests, r)
	return r.ID, nil
}

func (g *fakeGateway) CountUsers(context.Context) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return int64(len(g.users)), nil
}

func (g *fakeGateway) CountRequests(context.Context) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return int64(len(g.requests)), nil
}

func (g *fakeGateway) ListUserIDs(context.Context) ([]int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failListUsers != nil {
		return nil, g.failListUsers
	}
	ids := make([]int64, 0, len(g.users))
	for id := range g.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (g *fakeGateway) ListUsers(_ context.Context, ids []int64) ([]domain.UserSummary, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.UserSummary, 0, len(ids))
	for _, id := range ids {
		if u, ok := g.users[id]; ok {
			out = append(out, domain.UserSummary{ID: u.ID, FullName: u.FullName})
		}
	}
	return out, nil
}

func (g *fakeGateway) GetUser(_ context.Context, id int64) (domain.User, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failLookup != nil {
		return domain.User{}, false, g.failLookup
	}
	u, ok := g.users[id]
	return u, ok, nil
}

func (g *fakeGateway) IsAdmin(_ context.Context, id int64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.admins[id], nil
}

func (g *fakeGateway) addUser(id int64, name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.users[id] = domain.User{
		ID:        id,
		FullName:  name,
		BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Phone:     "+79991234567",
	}
}

const adminChat int64 = -1001

type harness struct {
	engine   *Engine
	tr       *fakeTransport
	gw       *fakeGateway
	notifier *fakeNotifier
	sessions session.Store
}

func newHarness(t *testing.T, mutate ...func(*Config)) *harness {
	t.Helper()
	h := &harness{
		tr:       &fakeTransport{failSend: map[int64]bool{}},
		gw:       newFakeGateway(),
		notifier: &fakeNotifier{},
		sessions: session.NewMemoryStore(),
	}
	cfg := Config{
		Sessions:    h.sessions,
		Gateway:     h.gw,
		Transport:   h.tr,
		Notifier:    h.notifier,
		AdminChatID: adminChat,
		Content: Content{
			Contacts: "📞 *Наши контакты*",
			About:    "🌟 *О нас* 🌟",
			SiteURL:  "https://example.org",
		},
		Now: func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local) },
	}
	for _, m := range mutate {
		m(&cfg)
	}
	e, err := New(cfg)
	require.NoError(t, err)
	h.engine = e
	return h
}

func (h *harness) handle(t *testing.T, u Update) {
	t.Helper()
	require.NoError(t, h.engine.Handle(context.Background(), u))
}

func (h *harness) stage(t *testing.T, userID int64) session.Stage {
	t.Helper()
	s, _, err := h.sessions.Get(context.Background(), userID)
	require.NoError(t, err)
	return s.Stage
}

func (h *harness) session(t *testing.T, userID int64) (session.Session, bool) {
	t.Helper()
	s, ok, err := h.sessions.Get(context.Background(), userID)
	require.NoError(t, err)
	return s, ok
}

func text(uid int64, s string) Update {
	return Update{UserID: uid, ChatID: uid, Kind: KindText, Text: s}
}

func richText(uid int64, s string, spans ...richtext.Span) Update {
	u := text(uid, s)
	u.Spans = spans
	return u
}

func command(uid int64, c Command, label string) Update {
	u := text(uid, label)
	u.Command = c
	return u
}

func contact(uid int64, phone string, owner int64) Update {
	return Update{UserID: uid, ChatID: uid, Kind: KindContact, Contact: &Contact{Phone: phone, UserID: owner}}
}

func photo(uid int64, fileID, caption string) Update {
	return Update{UserID: uid, ChatID: uid, Kind: KindPhoto, PhotoID: fileID, Text: caption}
}

func other(uid int64, caption string) Update {
	return Update{UserID: uid, ChatID: uid, Kind: KindOther, Text: caption}
}

func press(uid int64, action Action, payload string, arg int64) Update {
	return Update{
		UserID: uid,
		ChatID: uid,
		Kind:   KindCallback,
		Callback: &Callback{
			ID:      "cb",
			Action:  action,
			Payload: payload,
			Arg:     arg,
			Message: MessageRef{ChatID: uid, MessageID: 77},
		},
	}
}

func dbError() error {
	return &storage.Error{Op: "test", Err: errors.New("connection refused")}
}
