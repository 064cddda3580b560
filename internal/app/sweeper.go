package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rustam/servhub/internal/domain/identity/entity"
)

// onlineLister reports which profiles are currently flagged online
type onlineLister interface {
	OnlineIDs(ctx context.Context) ([]uuid.UUID, error)
}

// staleChecker filters a set of users down to those whose heartbeat
// has expired
type staleChecker interface {
	Stale(ctx context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error)
}

// presenceSetter flips the stored online flag and notifies clients
type presenceSetter interface {
	SetOnline(ctx context.Context, userID uuid.UUID, online bool) (*entity.Profile, error)
}

// Sweeper periodically marks users offline whose presence heartbeat
// expired. Without it, a client that dies without signing out stays
// online until it reconnects.
type Sweeper struct {
	profiles onlineLister
	tracker  staleChecker
	presence presenceSetter
	interval time.Duration
	logger   *slog.Logger

	stop chan struct{}
	done chan struct{}
}

// NewSweeper creates a new presence sweeper
func NewSweeper(profiles onlineLister, tracker staleChecker, presence presenceSetter, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		profiles: profiles,
		tracker:  tracker,
		presence: presence,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or ctx is cancelled
func (s *Sweeper) Start(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("presence sweeper started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop signals the loop to exit and waits for it
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Sweeper) sweep(ctx context.Context) {
	online, err := s.profiles.OnlineIDs(ctx)
	if err != nil {
		s.logger.Error("sweep: listing online profiles failed", "error", err)
		return
	}
	if len(online) == 0 {
		return
	}

	stale, err := s.tracker.Stale(ctx, online)
	if err != nil {
		s.logger.Error("sweep: heartbeat check failed", "error", err)
		return
	}

	for _, userID := range stale {
		if _, err := s.presence.SetOnline(ctx, userID, false); err != nil {
			s.logger.Error("sweep: marking offline failed", "user_id", userID, "error", err)
			continue
		}
		s.logger.Info("swept stale presence", "user_id", userID)
	}
}
