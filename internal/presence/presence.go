package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Tracker keeps per-user heartbeat keys in Redis with a TTL. The
// database online flag stays authoritative; heartbeats only exist so
// the sweeper can expire flags left behind by crashed clients.
type Tracker struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewTracker creates a heartbeat tracker
func NewTracker(client *redis.Client, ttl time.Duration) *Tracker {
	return &Tracker{redis: client, ttl: ttl}
}

func heartbeatKey(userID uuid.UUID) string {
	return "presence:" + userID.String()
}

// Beat refreshes the user's heartbeat key
func (t *Tracker) Beat(ctx context.Context, userID uuid.UUID) error {
	if err := t.redis.Set(ctx, heartbeatKey(userID), time.Now().Unix(), t.ttl).Err(); err != nil {
		return fmt.Errorf("setting heartbeat: %w", err)
	}
	return nil
}

// Clear removes the user's heartbeat key (sign-out, disconnect)
func (t *Tracker) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := t.redis.Del(ctx, heartbeatKey(userID)).Err(); err != nil {
		return fmt.Errorf("clearing heartbeat: %w", err)
	}
	return nil
}

// Alive reports whether the user's heartbeat key still exists
func (t *Tracker) Alive(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := t.redis.Exists(ctx, heartbeatKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("checking heartbeat: %w", err)
	}
	return n > 0, nil
}

// Stale filters the given user ids down to those without a live
// heartbeat. Used by the sweeper against the set of profiles the
// database still believes are online.
func (t *Tracker) Stale(ctx context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	var stale []uuid.UUID
	for _, id := range userIDs {
		alive, err := t.Alive(ctx, id)
		if err != nil {
			return nil, err
		}
		if !alive {
			stale = append(stale, id)
		}
	}
	return stale, nil
}
