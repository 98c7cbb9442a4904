//go:generate go run go.uber.org/mock/mockgen -source=message_repo.go -destination=../mocks/mock_message_repository.go -package=mocks
package repository

import (
	"context"

	"github.com/cwrk-planet/chatroom/internal/domain"
)

type MessageRepository interface {
	// Append stores m and fills in its ID and Seq.
	Append(ctx context.Context, m *domain.Message) error
	Get(ctx context.Context, id string) (*domain.Message, error)
	// ListVisible returns the newest limit messages visible to viewer, oldest
	// first. limit <= 0 means no limit.
	ListVisible(ctx context.Context, viewer, broadcast string, limit int) ([]domain.Message, error)
	// Update overwrites to, text and type of the message owned by m.From.
	Update(ctx context.Context, m *domain.Message) error
	// Delete removes the message with id owned by from.
	Delete(ctx context.Context, id, from string) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}
