package util

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clubverify/kyc-backend/access"
)

// SessionEntry is the live copy of a login consulted on every request.
// It carries everything the access layer needs so request handling does not
// have to re-read the users table.
type SessionEntry struct {
	UserID    uint               `json:"user_id"`
	Email     string             `json:"email"`
	User      access.UserContext `json:"user"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// Expired reports whether the entry's deadline has passed.
func (e SessionEntry) Expired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}

// SessionStore abstracts session storage so handlers can be backed by an
// in-process map in tests and by Redis in production. Implementations must
// never return an expired entry from Get.
type SessionStore interface {
	Put(ctx context.Context, token string, entry SessionEntry) error
	Get(ctx context.Context, token string) (SessionEntry, bool, error)
	Delete(ctx context.Context, token string) error
	DeleteAllForUser(ctx context.Context, userID uint) error
}

// MemorySessionStore is a map-backed SessionStore with lazy expiry: entries
// past their deadline are dropped on access, and Sweep can be called
// explicitly to clear them in bulk.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]SessionEntry
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]SessionEntry)}
}

func (s *MemorySessionStore) Put(_ context.Context, token string, entry SessionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = entry
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, token string) (SessionEntry, bool, error) {
	s.mu.RLock()
	entry, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return SessionEntry{}, false, nil
	}
	if entry.Expired() {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return SessionEntry{}, false, nil
	}
	return entry, true, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *MemorySessionStore) DeleteAllForUser(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, entry := range s.sessions {
		if entry.UserID == userID {
			delete(s.sessions, token)
		}
	}
	return nil
}

// Sweep removes every expired entry and returns how many were dropped.
func (s *MemorySessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for token, entry := range s.sessions {
		if entry.Expired() {
			delete(s.sessions, token)
			dropped++
		}
	}
	return dropped
}

// RedisSessionStore keeps sessions under session:<token> with a TTL, plus a
// per-user set user_sessions:<id> used to invalidate every session of a user
// at once. The set has no TTL and relies on explicit cleanup.
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func userSetKey(userID uint) string {
	return fmt.Sprintf("user_sessions:%d", userID)
}

func (s *RedisSessionStore) Put(ctx context.Context, token string, entry SessionEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}
	if err := s.rdb.Set(ctx, sessionKey(token), payload, ttl).Err(); err != nil {
		return err
	}
	if err := s.rdb.SAdd(ctx, userSetKey(entry.UserID), token).Err(); err != nil {
		return err
	}
	return s.rdb.Persist(ctx, userSetKey(entry.UserID)).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, token string) (SessionEntry, bool, error) {
	payload, err := s.rdb.Get(ctx, sessionKey(token)).Bytes()
	if err == redis.Nil {
		return SessionEntry{}, false, nil
	}
	if err != nil {
		return SessionEntry{}, false, err
	}
	var entry SessionEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return SessionEntry{}, false, err
	}
	if entry.Expired() {
		// Redis TTL normally handles this; guard against clock skew.
		_ = s.Delete(ctx, token)
		return SessionEntry{}, false, nil
	}
	return entry, true, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	entry, found, err := s.Get(ctx, token)
	if err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, sessionKey(token)).Err(); err != nil {
		return err
	}
	if !found {
		return nil
	}
	// Atomically remove the token from the per-user set, deleting the set
	// when it becomes empty.
	script := `
		local removed = redis.call('SREM', KEYS[1], ARGV[1])
		if removed > 0 then
			local count = redis.call('SCARD', KEYS[1])
			if count == 0 then
				redis.call('DEL', KEYS[1])
			end
		end
		return removed
	`
	return s.rdb.Eval(ctx, script, []string{userSetKey(entry.UserID)}, token).Err()
}

func (s *RedisSessionStore) DeleteAllForUser(ctx context.Context, userID uint) error {
	members, err := s.rdb.SMembers(ctx, userSetKey(userID)).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	for _, token := range members {
		_ = s.rdb.Del(ctx, sessionKey(token)).Err()
	}
	return s.rdb.Del(ctx, userSetKey(userID)).Err()
}
