package http

import (
	"github.com/cwrk-planet/chatroom/internal/domain"

	"github.com/samber/lo"
)

type ParticipantItem struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	LastStatus int64  `json:"lastStatus"` // unix ms
}

type MessageItem struct {
	ID   string `json:"_id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"`
}

func toParticipantItem(p domain.Participant) ParticipantItem {
	return ParticipantItem{
		ID:         p.ID,
		Name:       p.Name,
		LastStatus: p.LastStatus.UnixMilli(),
	}
}

func toMessageItem(m domain.Message) MessageItem {
	return MessageItem{
		ID:   m.ID,
		From: m.From,
		To:   m.To,
		Text: m.Text,
		Type: string(m.Type),
		Time: m.Time,
	}
}

func toParticipantItems(ps []domain.Participant) []ParticipantItem {
	return lo.Map(ps, func(p domain.Participant, _ int) ParticipantItem { return toParticipantItem(p) })
}

func toMessageItems(ms []domain.Message) []MessageItem {
	return lo.Map(ms, func(m domain.Message, _ int) MessageItem { return toMessageItem(m) })
}
