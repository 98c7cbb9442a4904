package postgres

import (
	"context"
	"slices"

	"github.com/cwrk-planet/chatroom/internal/domain"
	"github.com/cwrk-planet/chatroom/internal/repository"

	"github.com/google/uuid"
)

const (
	queryInsertMessage = `
		INSERT INTO messages (id, from_name, to_name, text, type, time_label)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq`
	querySelectMessages = `SELECT seq, id::text, from_name, to_name, text, type, time_label FROM messages`
	// newest first so LIMIT keeps the most recent; LIMIT NULL means no limit
	queryVisibleMessages = querySelectMessages + `
		WHERE to_name = $2
		   OR (type IN ('message', 'private_message') AND (to_name = $1 OR from_name = $1))
		ORDER BY seq DESC
		LIMIT $3`
	queryUpdateMessage = `UPDATE messages SET to_name = $3, text = $4, type = $5 WHERE id = $1 AND from_name = $2`
	queryDeleteMessage = `DELETE FROM messages WHERE id = $1 AND from_name = $2`
)

type MessageRepository struct {
	q querier
}

func NewMessageRepository(q querier) *MessageRepository {
	return &MessageRepository{q: q}
}

func (r *MessageRepository) Append(ctx context.Context, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	err := r.q.QueryRow(ctx, queryInsertMessage,
		m.ID, m.From, m.To, m.Text, string(m.Type), m.Time,
	).Scan(&m.Seq)
	if err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *MessageRepository) Get(ctx context.Context, id string) (*domain.Message, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	var (
		m   domain.Message
		typ string
	)
	err := r.q.QueryRow(ctx, querySelectMessages+` WHERE id = $1`, id).
		Scan(&m.Seq, &m.ID, &m.From, &m.To, &m.Text, &typ, &m.Time)
	if err != nil {
		return nil, mapPgError(err)
	}
	m.Type = domain.MessageType(typ)
	return &m, nil
}

func (r *MessageRepository) ListVisible(ctx context.Context, viewer, broadcast string, limit int) ([]domain.Message, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := r.q.Query(ctx, queryVisibleMessages, viewer, broadcast, lim)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Message, 0, 64)
	for rows.Next() {
		var (
			m   domain.Message
			typ string
		)
		if err := rows.Scan(&m.Seq, &m.ID, &m.From, &m.To, &m.Text, &typ, &m.Time); err != nil {
			return nil, err
		}
		m.Type = domain.MessageType(typ)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.Reverse(out)
	return out, nil
}

func (r *MessageRepository) Update(ctx context.Context, m *domain.Message) error {
	tag, err := r.q.Exec(ctx, queryUpdateMessage, m.ID, m.From, m.To, m.Text, string(m.Type))
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MessageRepository) Delete(ctx context.Context, id, from string) error {
	tag, err := r.q.Exec(ctx, queryDeleteMessage, id, from)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
