package postgres

import (
	"context"
	"time"

	"github.com/cwrk-planet/chatroom/internal/domain"
	"github.com/cwrk-planet/chatroom/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	queryInsertParticipant = `
		INSERT INTO participants (id, name, last_status)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING`
	querySelectParticipants = `SELECT id::text, name, last_status FROM participants`
	queryTouchParticipant   = `UPDATE participants SET last_status = GREATEST(last_status, $2) WHERE name = $1`
	queryDeleteIfStale      = `DELETE FROM participants WHERE id = $1 AND last_status < $2`
)

type ParticipantRepository struct {
	q querier
}

func NewParticipantRepository(q querier) *ParticipantRepository {
	return &ParticipantRepository{q: q}
}

func (r *ParticipantRepository) Create(ctx context.Context, p *domain.Participant) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	tag, err := r.q.Exec(ctx, queryInsertParticipant, p.ID, p.Name, p.LastStatus)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrAlreadyExists
	}
	return nil
}

func (r *ParticipantRepository) GetByName(ctx context.Context, name string) (*domain.Participant, error) {
	var p domain.Participant
	err := r.q.QueryRow(ctx, querySelectParticipants+` WHERE name = $1`, name).
		Scan(&p.ID, &p.Name, &p.LastStatus)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &p, nil
}

func (r *ParticipantRepository) List(ctx context.Context) ([]domain.Participant, error) {
	rows, err := r.q.Query(ctx, querySelectParticipants+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectParticipants(rows)
}

func (r *ParticipantRepository) Touch(ctx context.Context, name string, at time.Time) error {
	tag, err := r.q.Exec(ctx, queryTouchParticipant, name, at)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ParticipantRepository) ListStale(ctx context.Context, cutoff time.Time) ([]domain.Participant, error) {
	rows, err := r.q.Query(ctx, querySelectParticipants+` WHERE last_status < $1`, cutoff)
	if err != nil {
		return nil, err
	}
	return collectParticipants(rows)
}

func (r *ParticipantRepository) DeleteIfStale(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, queryDeleteIfStale, id, cutoff)
	if err != nil {
		return false, mapPgError(err)
	}
	return tag.RowsAffected() > 0, nil
}

func collectParticipants(rows pgx.Rows) ([]domain.Participant, error) {
	defer rows.Close()

	out := make([]domain.Participant, 0, 16)
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.LastStatus); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
