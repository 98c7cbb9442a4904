package domain

import "time"

type MessageType string

const (
	TypeMessage        MessageType = "message"         // visible to the whole room
	TypePrivateMessage MessageType = "private_message" // visible to sender and recipient
	TypeStatus         MessageType = "status"          // join / leave notice
)

const (
	DefaultBroadcastTarget = "Todos"
	DefaultTimeLayout      = "15:04:05"
	DefaultJoinText        = "entra na sala..."
	DefaultLeaveText       = "sai da sala..."
)

func (t MessageType) Valid() bool {
	switch t {
	case TypeMessage, TypePrivateMessage, TypeStatus:
		return true
	default:
		return false
	}
}

// Message is a ledger entry. Seq is the insertion position assigned by the
// store and is the only ordering key; Time is for display.
type Message struct {
	ID   string      `db:"id"`
	Seq  int64       `db:"seq"`
	From string      `db:"from_name"`
	To   string      `db:"to_name"`
	Text string      `db:"text"`
	Type MessageType `db:"type"`
	Time string      `db:"time_label"`
}

// VisibleTo applies the room visibility rule: broadcast entries are public,
// chat entries are visible to both ends of the conversation.
func (m Message) VisibleTo(viewer, broadcast string) bool {
	if m.To == broadcast {
		return true
	}
	if m.Type != TypeMessage && m.Type != TypePrivateMessage {
		return false
	}
	return m.To == viewer || m.From == viewer
}

func (m Message) OwnedBy(requester string) bool {
	return m.From == requester
}

// FormatTime renders t with layout, falling back to DefaultTimeLayout.
func FormatTime(t time.Time, layout string) string {
	if layout == "" {
		layout = DefaultTimeLayout
	}
	return t.Format(layout)
}
