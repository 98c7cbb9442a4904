package service

import (
	"log/slog"
	"time"

	"github.com/cwrk-planet/chatroom/internal/domain"
)

const (
	DefaultStaleAfter    = 10 * time.Second
	DefaultSweepInterval = 1500 * time.Millisecond
)

type Options struct {
	Broadcast  string        // recipient meaning "everyone"
	JoinText   string        // status text appended on admission
	LeaveText  string        // status text appended on eviction
	TimeLayout string        // display layout for Message.Time
	StaleAfter time.Duration // eviction threshold

	Now    func() time.Time
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Broadcast == "" {
		o.Broadcast = domain.DefaultBroadcastTarget
	}
	if o.JoinText == "" {
		o.JoinText = domain.DefaultJoinText
	}
	if o.LeaveText == "" {
		o.LeaveText = domain.DefaultLeaveText
	}
	if o.TimeLayout == "" {
		o.TimeLayout = domain.DefaultTimeLayout
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = DefaultStaleAfter
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
