// Package redis provides redis-backed implementations of the persistence
// ports. Sessions are JSON blobs with a TTL and a ZSET index scored by
// expiry; plans are JSON keyed by (domain, intent) with a per-domain
// intent index; pattern counters live in hashes so increments stay atomic
// across engine replicas.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

const defaultPrefix = "ascendia:"

// scoreHorizon stands in for "never expires" index scores (2100-01-01).
const scoreHorizon = 4102444800

type settings struct {
	prefix string
	ttl    time.Duration
}

// Option configures a store in this package.
type Option func(*settings)

// WithPrefix overrides the key namespace shared by the stores.
func WithPrefix(prefix string) Option {
	return func(s *settings) { s.prefix = prefix }
}

// WithTTL sets session expiration. Zero keeps sessions forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) { s.ttl = ttl }
}

func applyOptions(opts []Option) settings {
	cfg := settings{prefix: defaultPrefix}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewClient dials redis with the engine's defaults. The caller owns the
// client and shares it across the stores built from it.
func NewClient(address, password string, db int) *backend.Client {
	return backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
}

// SessionStore implements ports.SessionStore on redis.
type SessionStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// NewSessionStore wraps an existing client.
func NewSessionStore(client *backend.Client, opts ...Option) *SessionStore {
	cfg := applyOptions(opts)
	return &SessionStore{client: client, prefix: cfg.prefix, ttl: cfg.ttl}
}

func (s *SessionStore) key(sessionID string) string {
	return s.prefix + "session:" + sessionID
}

func (s *SessionStore) indexKey() string {
	return s.prefix + "session:index"
}

// Save persists the state as JSON and indexes the session by its expiry.
func (s *SessionStore) Save(ctx context.Context, sessionID string, state *domain.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sessionID, err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = scoreHorizon
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(sessionID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: sessionID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return nil
}

// Load retrieves the state for a session ID.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	var state domain.SessionState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return &state, nil
}

// Delete removes the session and its index entry.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns live session IDs, lazily pruning expired index entries.
func (s *SessionStore) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("prune expired sessions: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ids, nil
}
