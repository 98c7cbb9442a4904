package ws

import "github.com/cwrk-planet/chatroom/internal/domain"

// Event is one frame pushed to a subscriber. Type is the ledger event kind.
type Event struct {
	Type    string         `json:"type"`
	Payload MessagePayload `json:"payload"`
}

type MessagePayload struct {
	ID   string `json:"_id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"`
}

func toEvent(ev domain.LedgerEvent) Event {
	m := ev.Message
	return Event{
		Type: string(ev.Kind),
		Payload: MessagePayload{
			ID:   m.ID,
			From: m.From,
			To:   m.To,
			Text: m.Text,
			Type: string(m.Type),
			Time: m.Time,
		},
	}
}
