package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cwrk-planet/chatroom/internal/domain"
	"github.com/cwrk-planet/chatroom/internal/mocks"
	"github.com/cwrk-planet/chatroom/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newMocked(t *testing.T) (*PresenceService, *mocks.MockParticipantRepository, *mocks.MockMessageRepository, *fakeClock) {
	t.Helper()
	ctrl := gomock.NewController(t)
	participants := mocks.NewMockParticipantRepository(ctrl)
	messages := mocks.NewMockMessageRepository(ctrl)
	clock := newFakeClock()
	opts := Options{Now: clock.Now}
	ledger := NewMessageService(messages, participants, nil, opts)
	return NewPresenceService(participants, ledger, opts), participants, messages, clock
}

func Test_Sweep_Continues_After_Record_Failure(t *testing.T) {
	req := require.New(t)
	presence, participants, messages, clock := newMocked(t)
	ctx := context.Background()
	cutoff := clock.Now().Add(-DefaultStaleAfter)

	stale := []domain.Participant{
		{ID: "1", Name: "bob"},
		{ID: "2", Name: "carol"},
		{ID: "3", Name: "dave"},
	}
	participants.EXPECT().ListStale(gomock.Any(), cutoff).Return(stale, nil)
	participants.EXPECT().DeleteIfStale(gomock.Any(), "1", cutoff).Return(false, errors.New("store down"))
	participants.EXPECT().DeleteIfStale(gomock.Any(), "2", cutoff).Return(true, nil)
	// dave heartbeated between the scan and the delete
	participants.EXPECT().DeleteIfStale(gomock.Any(), "3", cutoff).Return(false, nil)

	messages.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, m *domain.Message) error {
		req.Equal("carol", m.From)
		req.Equal(domain.DefaultLeaveText, m.Text)
		req.Equal(domain.TypeStatus, m.Type)
		return nil
	})

	n, err := presence.Sweep(ctx)
	req.NoError(err)
	req.Equal(1, n)
}

func Test_Sweep_Scan_Failure_Is_Returned(t *testing.T) {
	presence, participants, _, _ := newMocked(t)
	participants.EXPECT().ListStale(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

	_, err := presence.Sweep(context.Background())
	require.ErrorContains(t, err, "boom")
}

func Test_Admit_Succeeds_When_Join_Notice_Fails(t *testing.T) {
	req := require.New(t)
	presence, participants, messages, _ := newMocked(t)

	participants.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	messages.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("ledger unavailable"))

	p, err := presence.Admit(context.Background(), "alice")
	req.NoError(err)
	req.Equal("alice", p.Name)
}

func Test_Admit_Store_Error_Is_Not_A_Conflict(t *testing.T) {
	req := require.New(t)
	presence, participants, _, _ := newMocked(t)

	participants.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

	_, err := presence.Admit(context.Background(), "alice")
	req.Error(err)
	req.NotErrorIs(err, domain.ErrNameTaken)
	req.NotErrorIs(err, domain.ErrInvalidInput)
}

func Test_Heartbeat_Uses_Clock(t *testing.T) {
	presence, participants, _, clock := newMocked(t)
	clock.Advance(time.Hour)

	participants.EXPECT().Touch(gomock.Any(), "alice", clock.Now()).Return(nil)
	participants.EXPECT().Touch(gomock.Any(), "ghost", gomock.Any()).Return(repository.ErrNotFound)

	require.NoError(t, presence.Heartbeat(context.Background(), "alice"))
	require.ErrorIs(t, presence.Heartbeat(context.Background(), "ghost"), domain.ErrParticipantNotFound)
}

func Test_Edit_Checks_Existence_Before_Ownership(t *testing.T) {
	req := require.New(t)
	_, _, messages, _ := newMocked(t)
	ledger := NewMessageService(messages, nil, nil, Options{})

	messages.EXPECT().Get(gomock.Any(), "gone").Return(nil, repository.ErrNotFound)
	messages.EXPECT().Get(gomock.Any(), "m1").Return(&domain.Message{ID: "m1", From: "alice"}, nil)

	body := broadcast("x")
	req.ErrorIs(ledger.Edit(context.Background(), "gone", "mallory", body), domain.ErrMessageNotFound)
	req.ErrorIs(ledger.Edit(context.Background(), "m1", "mallory", body), domain.ErrNotOwner)
}

func Test_Delete_Lost_Race_Is_Not_Found(t *testing.T) {
	_, _, messages, _ := newMocked(t)
	ledger := NewMessageService(messages, nil, nil, Options{})

	messages.EXPECT().Get(gomock.Any(), "m1").Return(&domain.Message{ID: "m1", From: "alice"}, nil)
	messages.EXPECT().Delete(gomock.Any(), "m1", "alice").Return(repository.ErrNotFound)

	require.ErrorIs(t, ledger.Delete(context.Background(), "m1", "alice"), domain.ErrMessageNotFound)
}
