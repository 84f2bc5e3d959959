package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"reflexduel/backend/internal/models"
)

// casRetries bounds how often an Update is replayed after losing a WATCH
// race. Two players contending on one session settle well within this.
const casRetries = 5

// SessionStore owns MatchSession records, stored as JSON in redis under
// their session key. Set is a plain last-writer-wins overwrite; Update is
// the optimistic compare-and-swap path result submission uses so two
// near-simultaneous submits serialize instead of one time being dropped.
type SessionStore struct {
	rdb *redis.Client
	log zerolog.Logger
}

func NewSessionStore(rdb *redis.Client, log zerolog.Logger) *SessionStore {
	return &SessionStore{rdb: rdb, log: log.With().Str("component", "session_store").Logger()}
}

func (s *SessionStore) Get(ctx context.Context, key string) (*models.MatchSession, error) {
	raw, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", key, err)
	}

	var sess models.MatchSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", key, err)
	}
	return &sess, nil
}

func (s *SessionStore) Set(ctx context.Context, key string, sess *models.MatchSession) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("set session %s: %w", key, err)
	}
	return nil
}

// Update applies mutate to the current session under WATCH. If another
// writer commits between the read and the write, the transaction fails and
// the whole read-mutate-write is replayed against the fresh record.
func (s *SessionStore) Update(ctx context.Context, key string, mutate func(*models.MatchSession) error) (*models.MatchSession, error) {
	var out *models.MatchSession

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("get session %s: %w", key, err)
		}

		var sess models.MatchSession
		if err := json.Unmarshal([]byte(raw), &sess); err != nil {
			return fmt.Errorf("decode session %s: %w", key, err)
		}
		if err := mutate(&sess); err != nil {
			return err
		}

		encoded, err := json.Marshal(&sess)
		if err != nil {
			return fmt.Errorf("encode session %s: %w", key, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		if err != nil {
			return err
		}
		out = &sess
		return nil
	}

	for i := 0; i < casRetries; i++ {
		err := s.rdb.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			s.log.Debug().Str("key", key).Int("attempt", i+1).Msg("session update conflict, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUpdateConflict, key)
}
