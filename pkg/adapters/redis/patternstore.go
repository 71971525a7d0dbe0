package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// PatternStore implements ports.PatternStore on redis hashes. HINCRBY
// makes the counters atomic across engine replicas observing the same
// fingerprint; the static fields are written once with HSETNX.
type PatternStore struct {
	client *backend.Client
	prefix string
}

// NewPatternStore wraps an existing client.
func NewPatternStore(client *backend.Client, opts ...Option) *PatternStore {
	cfg := applyOptions(opts)
	return &PatternStore{client: client, prefix: cfg.prefix}
}

func (s *PatternStore) key(fingerprint string) string {
	return s.prefix + "pattern:" + fingerprint
}

func (s *PatternStore) indexKey() string {
	return s.prefix + "pattern:index"
}

// Observe upserts the observation and bumps its counters atomically.
func (s *PatternStore) Observe(ctx context.Context, obs *domain.PatternObservation, success bool) error {
	seq, err := json.Marshal(obs.Sequence)
	if err != nil {
		return fmt.Errorf("marshal pattern sequence: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	key := s.key(obs.Fingerprint)

	pipe := s.client.TxPipeline()
	pipe.HSetNX(ctx, key, "domainId", obs.DomainID)
	pipe.HSetNX(ctx, key, "intent", obs.Intent)
	pipe.HSetNX(ctx, key, "sequence", seq)
	pipe.HSetNX(ctx, key, "status", string(domain.PatternObserved))
	pipe.HSetNX(ctx, key, "firstSeen", now)
	pipe.HIncrBy(ctx, key, "timesObserved", 1)
	if success {
		pipe.HIncrBy(ctx, key, "successCount", 1)
	}
	pipe.HSet(ctx, key, "lastSeen", now)
	pipe.SAdd(ctx, s.indexKey(), obs.Fingerprint)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("observe pattern %s: %w", obs.Fingerprint, err)
	}
	return nil
}

// Get retrieves one observation by fingerprint.
func (s *PatternStore) Get(ctx context.Context, fingerprint string) (*domain.PatternObservation, error) {
	fields, err := s.client.HGetAll(ctx, s.key(fingerprint)).Result()
	if err != nil {
		return nil, fmt.Errorf("load pattern %s: %w", fingerprint, err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrPatternNotFound
	}
	return parseObservation(fingerprint, fields)
}

// ListByStatus returns observations with the given status, dropping index
// entries whose hash has gone missing.
func (s *PatternStore) ListByStatus(ctx context.Context, status domain.PatternStatus) ([]*domain.PatternObservation, error) {
	fingerprints, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}

	var out []*domain.PatternObservation
	for _, fp := range fingerprints {
		fields, err := s.client.HGetAll(ctx, s.key(fp)).Result()
		if err != nil {
			return nil, fmt.Errorf("load pattern %s: %w", fp, err)
		}
		if len(fields) == 0 {
			_ = s.client.SRem(ctx, s.indexKey(), fp)
			continue
		}
		if domain.PatternStatus(fields["status"]) != status {
			continue
		}
		obs, err := parseObservation(fp, fields)
		if err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	return out, nil
}

// SetStatus moves an observation through the promotion funnel.
func (s *PatternStore) SetStatus(ctx context.Context, fingerprint string, status domain.PatternStatus) error {
	exists, err := s.client.Exists(ctx, s.key(fingerprint)).Result()
	if err != nil {
		return fmt.Errorf("check pattern %s: %w", fingerprint, err)
	}
	if exists == 0 {
		return domain.ErrPatternNotFound
	}
	return s.client.HSet(ctx, s.key(fingerprint), "status", string(status)).Err()
}

// Delete removes an observation and its index entry.
func (s *PatternStore) Delete(ctx context.Context, fingerprint string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(fingerprint))
	pipe.SRem(ctx, s.indexKey(), fingerprint)
	_, err := pipe.Exec(ctx)
	return err
}

func parseObservation(fingerprint string, fields map[string]string) (*domain.PatternObservation, error) {
	obs := &domain.PatternObservation{
		Fingerprint: fingerprint,
		DomainID:    fields["domainId"],
		Intent:      fields["intent"],
		Status:      domain.PatternStatus(fields["status"]),
	}
	if raw := fields["sequence"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &obs.Sequence); err != nil {
			return nil, fmt.Errorf("decode sequence for pattern %s: %w", fingerprint, err)
		}
	}
	obs.TimesObserved, _ = strconv.ParseInt(fields["timesObserved"], 10, 64)
	obs.SuccessCount, _ = strconv.ParseInt(fields["successCount"], 10, 64)
	if ts := fields["firstSeen"]; ts != "" {
		obs.FirstSeen, _ = time.Parse(time.RFC3339Nano, ts)
	}
	if ts := fields["lastSeen"]; ts != "" {
		obs.LastSeen, _ = time.Parse(time.RFC3339Nano, ts)
	}
	return obs, nil
}
