//go:generate go run go.uber.org/mock/mockgen -source=participant_repo.go -destination=../mocks/mock_participant_repository.go -package=mocks
package repository

import (
	"context"
	"time"

	"github.com/cwrk-planet/chatroom/internal/domain"
)

type ParticipantRepository interface {
	// Create inserts p unless the name is taken, in which case it returns
	// ErrAlreadyExists. The check and the insert are one atomic operation.
	Create(ctx context.Context, p *domain.Participant) error
	GetByName(ctx context.Context, name string) (*domain.Participant, error)
	List(ctx context.Context) ([]domain.Participant, error)
	// Touch moves last_status forward to at; it never moves it back.
	Touch(ctx context.Context, name string, at time.Time) error
	ListStale(ctx context.Context, cutoff time.Time) ([]domain.Participant, error)
	// DeleteIfStale removes the participant only if it is still older than cutoff.
	DeleteIfStale(ctx context.Context, id string, cutoff time.Time) (bool, error)
}
