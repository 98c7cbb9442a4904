package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwrk-planet/chatroom/internal/domain"
	"github.com/cwrk-planet/chatroom/internal/repository"
	"github.com/cwrk-planet/chatroom/internal/validation"
)

type MessageService struct {
	messages     repository.MessageRepository
	participants repository.ParticipantRepository
	publisher    domain.EventPublisher
	opts         Options
}

func NewMessageService(
	messages repository.MessageRepository,
	participants repository.ParticipantRepository,
	publisher domain.EventPublisher,
	opts Options,
) *MessageService {
	if publisher == nil {
		publisher = domain.NopPublisher{}
	}
	return &MessageService{
		messages:     messages,
		participants: participants,
		publisher:    publisher,
		opts:         opts.withDefaults(),
	}
}

func (s *MessageService) Broadcast() string { return s.opts.Broadcast }

// Post appends a user-authored message. The body is checked before the sender,
// so a malformed body is reported even when the sender is unknown.
func (s *MessageService) Post(ctx context.Context, from string, in validation.MessageInput) (*domain.Message, error) {
	body, err := validation.Message(in)
	if err != nil {
		return nil, err
	}
	if from == "" {
		return nil, domain.NewValidationError("user is required")
	}
	if _, err := s.participants.GetByName(ctx, from); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("participantRepo.GetByName: %w", err)
	}

	return s.append(ctx, &domain.Message{
		From: from,
		To:   body.To,
		Text: body.Text,
		Type: domain.MessageType(body.Type),
	})
}

// AppendStatus records a join/leave notice for name addressed to the room.
func (s *MessageService) AppendStatus(ctx context.Context, name, text string) (*domain.Message, error) {
	return s.append(ctx, &domain.Message{
		From: name,
		To:   s.opts.Broadcast,
		Text: text,
		Type: domain.TypeStatus,
	})
}

func (s *MessageService) append(ctx context.Context, m *domain.Message) (*domain.Message, error) {
	m.Time = domain.FormatTime(s.opts.Now(), s.opts.TimeLayout)
	if err := s.messages.Append(ctx, m); err != nil {
		return nil, fmt.Errorf("messageRepo.Append: %w", err)
	}
	s.publisher.Publish(domain.LedgerEvent{Kind: domain.EventMessageCreated, Message: *m})
	return m, nil
}

// Query returns the newest limit messages visible to viewer in chronological
// order. limit == 0 means all of them.
func (s *MessageService) Query(ctx context.Context, viewer string, limit int) ([]domain.Message, error) {
	if limit < 0 {
		return nil, domain.NewValidationError("limit must be a non-negative integer")
	}
	msgs, err := s.messages.ListVisible(ctx, viewer, s.opts.Broadcast, limit)
	if err != nil {
		return nil, fmt.Errorf("messageRepo.ListVisible: %w", err)
	}
	return msgs, nil
}

func (s *MessageService) Edit(ctx context.Context, id, requester string, in validation.MessageInput) error {
	body, err := validation.Message(in)
	if err != nil {
		return err
	}
	current, err := s.owned(ctx, id, requester)
	if err != nil {
		return err
	}

	current.To = body.To
	current.Text = body.Text
	current.Type = domain.MessageType(body.Type)
	if err := s.messages.Update(ctx, current); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrMessageNotFound
		}
		return fmt.Errorf("messageRepo.Update: %w", err)
	}

	s.publisher.Publish(domain.LedgerEvent{Kind: domain.EventMessageUpdated, Message: *current})
	return nil
}

func (s *MessageService) Delete(ctx context.Context, id, requester string) error {
	current, err := s.owned(ctx, id, requester)
	if err != nil {
		return err
	}
	if err := s.messages.Delete(ctx, id, requester); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrMessageNotFound
		}
		return fmt.Errorf("messageRepo.Delete: %w", err)
	}

	s.publisher.Publish(domain.LedgerEvent{Kind: domain.EventMessageDeleted, Message: *current})
	return nil
}

// owned loads the message and checks that requester authored it.
func (s *MessageService) owned(ctx context.Context, id, requester string) (*domain.Message, error) {
	m, err := s.messages.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("messageRepo.Get: %w", err)
	}
	if !m.OwnedBy(requester) {
		return nil, domain.ErrNotOwner
	}
	return m, nil
}
