package flow

import "github.com/m3rciful/intakebot/internal/richtext"

// Kind is the payload kind of an inbound event.
type Kind int

const (
	KindText Kind = iota + 1
	KindContact
	KindPhoto
	KindCallback
	// KindOther is any message payload the dialogue has no use for:
	// documents, voice, video, stickers, locations.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindContact:
		return "contact"
	case KindPhoto:
		return "photo"
	case KindCallback:
		return "callback"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// Command is a recognised control input. The transport resolves it from
// slash commands and reply keyboard labels; everything else is CmdNone.
type Command int

const (
	CmdNone Command = iota
	CmdStart
	CmdAdmin
	CmdNewRequest
	CmdContacts
	CmdAbout
	CmdCancel
	CmdSkip
)

func (c Command) String() string {
	switch c {
	case CmdStart:
		return "start"
	case CmdAdmin:
		return "admin"
	case CmdNewRequest:
		return "new_request"
	case CmdContacts:
		return "contacts"
	case CmdAbout:
		return "about"
	case CmdCancel:
		return "cancel"
	case CmdSkip:
		return "skip"
	default:
		return "none"
	}
}

// Action names an inline button.
type Action string

const (
	ActionNone             Action = "none"
	ActionOption           Action = "option"
	ActionConfirm          Action = "confirm"
	ActionAdminStats       Action = "admin_stats"
	ActionAdminBroadcast   Action = "admin_broadcast"
	ActionAdminUsers       Action = "admin_users"
	ActionAdminBack        Action = "admin_back"
	ActionAdminCancel      Action = "admin_cancel"
	ActionUserInfo         Action = "user_info"
	ActionUsersPage        Action = "users_page"
	ActionBroadcastConfirm Action = "broadcast_confirm"
	ActionBroadcastCancel  Action = "broadcast_cancel"
)

var actions = map[Action]struct{}{
	ActionNone: {}, ActionOption: {}, ActionConfirm: {},
	ActionAdminStats: {}, ActionAdminBroadcast: {}, ActionAdminUsers: {}, ActionAdminBack: {}, ActionAdminCancel: {},
	ActionUserInfo: {}, ActionUsersPage: {},
	ActionBroadcastConfirm: {}, ActionBroadcastCancel: {},
}

// Actions lists every known action; the transport registers one button per entry.
func Actions() []Action {
	out := make([]Action, 0, len(actions))
	for a := range actions {
		out = append(out, a)
	}
	return out
}

// ParseAction maps raw button data to an Action. Unknown data is returned
// as is with false; the engine answers such presses as outdated.
func ParseAction(raw string) (Action, bool) {
	a := Action(raw)
	_, ok := actions[a]
	return a, ok
}

// MessageRef points at a message the bot sent earlier.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Contact is a shared phone contact. UserID is zero when Telegram did not link it to an account.
type Contact struct {
	Phone  string
	UserID int64
}

// Callback is an inline button press.
type Callback struct {
	ID      string
	Action  Action
	Payload string
	// Arg is Payload parsed as an integer when it is one.
	Arg     int64
	Message MessageRef
}

// Update is one inbound event, already decoded from the transport.
type Update struct {
	ID       int
	UserID   int64
	ChatID   int64
	Kind     Kind
	Command  Command
	Text     string
	Spans    []richtext.Span
	Contact  *Contact
	PhotoID  string
	Callback *Callback
}
