package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/helpdeskhq/support-router/conversation"
)

// DefaultSessionTTL bounds how long an idle session snapshot survives.
const DefaultSessionTTL = 24 * time.Hour

// SessionStore keeps JSON snapshots of conversation contexts in Redis so a
// restarted process can pick up in-flight sessions. The in-memory manager
// remains authoritative; this store is best-effort.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a snapshot store on an existing Redis client.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

// NewSessionStoreFromAddr dials Redis and verifies the connection.
func NewSessionStoreFromAddr(ctx context.Context, addr, password string, db int, ttl time.Duration) (*SessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewSessionStore(client, ttl), nil
}

// Save writes the session snapshot with a sliding TTL.
func (s *SessionStore) Save(ctx context.Context, c *conversation.Context) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.client.Set(ctx, sessionKey(c.SessionID), data, s.ttl).Err()
}

// Load reads a snapshot. A missing key returns (nil, nil).
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*conversation.Context, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var c conversation.Context
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &c, nil
}

func sessionKey(sessionID string) string {
	return "session:ctx:" + sessionID
}
