// Package session stores in-progress dialogue state in Redis. Entries are
// ephemeral: every record carries a TTL and the durable user record remains
// the source of truth when an entry expires or disagrees.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/okhomin/freightbot/internal/dialogue"
	"github.com/okhomin/freightbot/internal/model"
)

const defaultPrefix = "freightbot:dialogue:"

// Store implements dialogue.SessionStore on top of Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for session entries.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for session entries.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a session store from an existing Redis client.
func New(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: defaultPrefix,
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(userID int64) string {
	return s.prefix + strconv.FormatInt(userID, 10)
}

// Get loads the session for the user. Returns model.ErrNotFound when the
// entry is absent or expired.
func (s *Store) Get(ctx context.Context, userID int64) (*dialogue.Session, error) {
	val, err := s.client.Get(ctx, s.key(userID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("session: get: %w", err)
	}

	var sess dialogue.Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}
	return &sess, nil
}

// Set writes the session and refreshes its TTL.
func (s *Store) Set(ctx context.Context, userID int64, sess *dialogue.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.client.Set(ctx, s.key(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: set: %w", err)
	}
	return nil
}

// UpdateField stores a single collected value without advancing the step.
func (s *Store) UpdateField(ctx context.Context, userID int64, field, value string) error {
	sess, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if sess.Data == nil {
		sess.Data = make(map[string]string)
	}
	sess.Data[field] = value
	return s.Set(ctx, userID, sess)
}

// Delete removes the session entry.
func (s *Store) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}
