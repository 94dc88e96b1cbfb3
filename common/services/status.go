package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sodiqardianto/edlink-scrap/common/redis"
)

// SessionStatus is the latest known state of a scrape session, cached so that
// clients can poll without holding an event stream open.
type SessionStatus struct {
	SessionID string    `json:"session_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Progress  int       `json:"progress,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusCache stores the latest status per scrape session in Redis.
type StatusCache struct {
	redis *redis.RedisClient
	ttl   time.Duration
}

// NewStatusCache creates a status cache. Entries expire after ttl so finished
// sessions do not accumulate.
func NewStatusCache(redisClient *redis.RedisClient, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &StatusCache{
		redis: redisClient,
		ttl:   ttl,
	}
}

func statusKey(sessionID string) string {
	return fmt.Sprintf("scrape:session:%s:status", sessionID)
}

// Set overwrites the cached status of a session
func (c *StatusCache) Set(ctx context.Context, status SessionStatus) error {
	status.UpdatedAt = time.Now()
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}

	return c.redis.Set(ctx, statusKey(status.SessionID), string(payload), c.ttl)
}

// Get returns the cached status of a session and whether it exists
func (c *StatusCache) Get(ctx context.Context, sessionID string) (SessionStatus, bool, error) {
	payload, err := c.redis.Get(ctx, statusKey(sessionID))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return SessionStatus{}, false, nil
		}
		return SessionStatus{}, false, err
	}

	var status SessionStatus
	if err := json.Unmarshal([]byte(payload), &status); err != nil {
		return SessionStatus{}, false, err
	}

	return status, true, nil
}
