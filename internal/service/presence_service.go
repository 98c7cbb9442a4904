package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwrk-planet/chatroom/internal/domain"
	"github.com/cwrk-planet/chatroom/internal/repository"
	"github.com/cwrk-planet/chatroom/internal/validation"
)

type PresenceService struct {
	participants repository.ParticipantRepository
	ledger       *MessageService
	opts         Options
}

func NewPresenceService(participants repository.ParticipantRepository, ledger *MessageService, opts Options) *PresenceService {
	return &PresenceService{
		participants: participants,
		ledger:       ledger,
		opts:         opts.withDefaults(),
	}
}

// Admit registers name and announces it to the room. The join notice is
// written after the participant and is not rolled back if it fails.
func (s *PresenceService) Admit(ctx context.Context, name string) (*domain.Participant, error) {
	name, err := validation.Participant(validation.ParticipantInput{Name: name})
	if err != nil {
		return nil, err
	}

	p := &domain.Participant{Name: name, LastStatus: s.opts.Now()}
	if err := s.participants.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, domain.ErrNameTaken
		}
		return nil, fmt.Errorf("participantRepo.Create: %w", err)
	}

	if _, err := s.ledger.AppendStatus(ctx, p.Name, s.opts.JoinText); err != nil {
		s.opts.Logger.Error("join notice not recorded", slog.String("name", p.Name), slog.Any("err", err))
	}
	return p, nil
}

func (s *PresenceService) List(ctx context.Context) ([]domain.Participant, error) {
	list, err := s.participants.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("participantRepo.List: %w", err)
	}
	return list, nil
}

func (s *PresenceService) Heartbeat(ctx context.Context, name string) error {
	if err := s.participants.Touch(ctx, name, s.opts.Now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrParticipantNotFound
		}
		return fmt.Errorf("participantRepo.Touch: %w", err)
	}
	return nil
}

// Sweep evicts every participant silent for longer than StaleAfter and
// announces each departure. A failure on one participant is logged and the
// sweep moves on to the next.
func (s *PresenceService) Sweep(ctx context.Context) (int, error) {
	cutoff := s.opts.Now().Add(-s.opts.StaleAfter)
	stale, err := s.participants.ListStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("participantRepo.ListStale: %w", err)
	}

	evicted := 0
	for _, p := range stale {
		deleted, err := s.participants.DeleteIfStale(ctx, p.ID, cutoff)
		if err != nil {
			s.opts.Logger.Warn("evict participant failed", slog.String("name", p.Name), slog.Any("err", err))
			continue
		}
		if !deleted {
			continue
		}
		evicted++
		if _, err := s.ledger.AppendStatus(ctx, p.Name, s.opts.LeaveText); err != nil {
			s.opts.Logger.Warn("leave notice not recorded", slog.String("name", p.Name), slog.Any("err", err))
		}
	}
	return evicted, nil
}
