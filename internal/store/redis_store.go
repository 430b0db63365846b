package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/driveline-ai/lucid-booking-bot/internal/booking"
	"github.com/driveline-ai/lucid-booking-bot/internal/observability/metrics"
	"github.com/driveline-ai/lucid-booking-bot/pkg/logging"
)

// RedisStore keeps contexts in memory and mirrors them to redis with a TTL.
// It implements the same contract as FileStore for deployments where local
// disk is not durable.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *logging.Logger
	metrics *metrics.ConversationMetrics
	tracer  trace.Tracer

	mu       sync.Mutex
	contexts map[string]*booking.AppointmentContext
	locks    *keyedMutex
}

var _ ContextStore = (*RedisStore)(nil)

// NewRedisStore wraps a redis client. ttl <= 0 disables expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration, logger *logging.Logger, m *metrics.ConversationMetrics) *RedisStore {
	if client == nil {
		panic("store: redis client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisStore{
		client:   client,
		ttl:      ttl,
		logger:   logger.Named("redis-store"),
		metrics:  m,
		tracer:   otel.Tracer("bookingbot.internal.store.redis"),
		contexts: make(map[string]*booking.AppointmentContext),
		locks:    newKeyedMutex(),
	}
}

func contextKey(id string) string {
	return fmt.Sprintf("context:%s", id)
}

func historyKey(id string) string {
	return fmt.Sprintf("history:%s", id)
}

// Lock serializes message processing per canonical user id.
func (s *RedisStore) Lock(userID string) func() {
	return s.locks.Lock(CanonicalUserID(userID))
}

// Get returns the cached context, or reloads it from redis, or creates one.
func (s *RedisStore) Get(ctx context.Context, userID string) *booking.AppointmentContext {
	ctx, span := s.tracer.Start(ctx, "store.redis.get_context")
	defer span.End()

	id := CanonicalUserID(userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.contexts[id]; ok {
		return c
	}

	c := s.loadSnapshot(ctx, id)
	if c == nil {
		c = booking.NewContext(id)
	}
	s.contexts[id] = c
	return c
}

// Persist overwrites the user's snapshot key. Failures are logged and
// swallowed.
func (s *RedisStore) Persist(ctx context.Context, userID string, c *booking.AppointmentContext) {
	ctx, span := s.tracer.Start(ctx, "store.redis.persist_context")
	defer span.End()

	id := CanonicalUserID(userID)

	s.mu.Lock()
	s.contexts[id] = c
	s.mu.Unlock()

	data, err := encodeContext(c)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to encode context", "user_id", id, "error", err)
		s.metrics.ObservePersistFailure("snapshot")
		return
	}
	if err := s.client.Set(ctx, contextKey(id), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		s.logger.Error("failed to persist context", "user_id", id, "error", err)
		s.metrics.ObservePersistFailure("snapshot")
	}
}

// AppendHistory records one turn, bounded to the 50 most recent entries.
func (s *RedisStore) AppendHistory(ctx context.Context, userID, userMessage, botResponse string) {
	ctx, span := s.tracer.Start(ctx, "store.redis.append_history")
	defer span.End()

	id := CanonicalUserID(userID)
	c := s.Get(ctx, userID)

	entries := s.readHistory(ctx, id)
	entries = append(entries, HistoryEntry{
		Timestamp:   time.Now(),
		UserMessage: userMessage,
		BotResponse: botResponse,
		Context:     summarize(c),
	})
	if len(entries) > historyLimit {
		entries = entries[len(entries)-historyLimit:]
	}

	data, err := json.Marshal(entries)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to encode history", "user_id", id, "error", err)
		s.metrics.ObservePersistFailure("history")
		return
	}
	if err := s.client.Set(ctx, historyKey(id), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		s.logger.Error("failed to persist history", "user_id", id, "error", err)
		s.metrics.ObservePersistFailure("history")
	}
}

// RecentHistory returns up to limit most recent entries, oldest first.
func (s *RedisStore) RecentHistory(ctx context.Context, userID string, limit int) []HistoryEntry {
	ctx, span := s.tracer.Start(ctx, "store.redis.recent_history")
	defer span.End()

	entries := s.readHistory(ctx, CanonicalUserID(userID))
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries
}

// Reset discards the cached and durable context and persists a fresh one.
func (s *RedisStore) Reset(ctx context.Context, userID string) *booking.AppointmentContext {
	id := CanonicalUserID(userID)

	s.mu.Lock()
	delete(s.contexts, id)
	s.mu.Unlock()

	c := booking.NewContext(id)
	s.Persist(ctx, userID, c)
	return c
}

// Cleanup evicts cached contexts idle longer than maxAge. Redis keys expire
// through their TTL instead.
func (s *RedisStore) Cleanup(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, c := range s.contexts {
		if c.LastMessageTime.Before(cutoff) {
			delete(s.contexts, id)
			evicted++
		}
	}
	return evicted
}

func (s *RedisStore) loadSnapshot(ctx context.Context, id string) *booking.AppointmentContext {
	data, err := s.client.Get(ctx, contextKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("failed to read context snapshot", "user_id", id, "error", err)
		}
		return nil
	}
	c, err := decodeContext(data)
	if err != nil {
		s.logger.Warn("discarding malformed context snapshot", "user_id", id, "error", err)
		return nil
	}
	return c
}

func (s *RedisStore) readHistory(ctx context.Context, id string) []HistoryEntry {
	data, err := s.client.Get(ctx, historyKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("failed to read history", "user_id", id, "error", err)
		}
		return nil
	}
	var entries []HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("discarding malformed history", "user_id", id, "error", err)
		return nil
	}
	return entries
}
