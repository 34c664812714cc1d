package bot

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

type sentMessage struct {
	ChatID int64
	What   any
	Opts   *tele.SendOptions
}

func (m sentMessage) text() string {
	switch w := m.What.(type) {
	case string:
		return w
	case *tele.Photo:
		return w.Caption
	}
	return ""
}

type editedMessage struct {
	Ref    tele.StoredMessage
	Text   string
	Opts   *tele.SendOptions
	Markup *tele.ReplyMarkup
}

// fakeAPI records Bot API calls instead of performing them.
type fakeAPI struct {
	mu      sync.Mutex
	sent    []sentMessage
	edits   []editedMessage
	answers []*tele.CallbackResponse
	sendErr error
	editErr error
}

func options(opts []interface{}) *tele.SendOptions {
	if len(opts) == 0 {
		return nil
	}
	so, _ := opts[0].(*tele.SendOptions)
	return so
}

func (f *fakeAPI) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	id, _ := strconv.ParseInt(to.Recipient(), 10, 64)
	f.sent = append(f.sent, sentMessage{ChatID: id, What: what, Opts: options(opts)})
	return &tele.Message{ID: len(f.sent)}, nil
}

func (f *fakeAPI) Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return nil, f.editErr
	}
	ref, _ := msg.(tele.StoredMessage)
	text, _ := what.(string)
	f.edits = append(f.edits, editedMessage{Ref: ref, Text: text, Opts: options(opts)})
	return &tele.Message{}, nil
}

func (f *fakeAPI) EditReplyMarkup(msg tele.Editable, markup *tele.ReplyMarkup) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return nil, f.editErr
	}
	ref, _ := msg.(tele.StoredMessage)
	f.edits = append(f.edits, editedMessage{Ref: ref, Markup: markup})
	return &tele.Message{}, nil
}

func (f *fakeAPI) Respond(_ *tele.Callback, resp ...*tele.CallbackResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, resp...)
	return nil
}

func (f *fakeAPI) lastSent(t *testing.T) sentMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

func (f *fakeAPI) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func offlineBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b
}

func textMessage(id int, userID int64, text string) tele.Update {
	return tele.Update{
		ID:      id,
		Message: &tele.Message{ID: id, Text: text, Sender: &tele.User{ID: userID}, Chat: &tele.Chat{ID: userID}},
	}
}

func buttonPress(id int, userID int64, data string, messageID int) tele.Update {
	return tele.Update{
		ID: id,
		Callback: &tele.Callback{
			ID:      "cb" + strconv.Itoa(id),
			Data:    data,
			Sender:  &tele.User{ID: userID},
			Message: &tele.Message{ID: messageID, Chat: &tele.Chat{ID: userID}},
		},
	}
}
