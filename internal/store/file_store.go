package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/driveline-ai/lucid-booking-bot/internal/booking"
	"github.com/driveline-ai/lucid-booking-bot/internal/observability/metrics"
	"github.com/driveline-ai/lucid-booking-bot/pkg/logging"
)

// FileStore keeps contexts in memory and mirrors them to one JSON snapshot
// file plus one history file per canonical user id.
type FileStore struct {
	dir     string
	logger  *logging.Logger
	metrics *metrics.ConversationMetrics
	tracer  trace.Tracer

	mu       sync.Mutex
	contexts map[string]*booking.AppointmentContext
	locks    *keyedMutex
}

var _ ContextStore = (*FileStore)(nil)

// NewFileStore creates the history directory if needed. metrics may be nil.
func NewFileStore(dir string, logger *logging.Logger, m *metrics.ConversationMetrics) (*FileStore, error) {
	if dir == "" {
		dir = "History"
	}
	if logger == nil {
		logger = logging.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: failed to create history dir: %w", err)
	}
	return &FileStore{
		dir:      dir,
		logger:   logger.Named("store"),
		metrics:  m,
		tracer:   otel.Tracer("bookingbot.internal.store"),
		contexts: make(map[string]*booking.AppointmentContext),
		locks:    newKeyedMutex(),
	}, nil
}

// Lock serializes message processing per canonical user id.
func (s *FileStore) Lock(userID string) func() {
	return s.locks.Lock(CanonicalUserID(userID))
}

// Get returns the cached context, or reloads it from disk, or creates one.
func (s *FileStore) Get(ctx context.Context, userID string) *booking.AppointmentContext {
	_, span := s.tracer.Start(ctx, "store.get_context")
	defer span.End()

	id := CanonicalUserID(userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.contexts[id]; ok {
		return c
	}

	c := s.loadSnapshot(id)
	if c == nil {
		c = booking.NewContext(id)
	}
	s.contexts[id] = c
	return c
}

// Persist atomically overwrites the user's snapshot file. Failures are
// logged and swallowed.
func (s *FileStore) Persist(ctx context.Context, userID string, c *booking.AppointmentContext) {
	_, span := s.tracer.Start(ctx, "store.persist_context")
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
	if err := s.writeAtomic(s.contextPath(id), data); err != nil {
		span.RecordError(err)
		s.logger.Error("failed to persist context", "user_id", id, "error", err)
		s.metrics.ObservePersistFailure("snapshot")
	}
}

// AppendHistory records one turn, bounded to the 50 most recent entries.
func (s *FileStore) AppendHistory(ctx context.Context, userID, userMessage, botResponse string) {
	_, span := s.tracer.Start(ctx, "store.append_history")
	defer span.End()

	id := CanonicalUserID(userID)
	c := s.Get(ctx, userID)

	entries := s.readHistory(id)
	entries = append(entries, HistoryEntry{
		Timestamp:   time.Now(),
		UserMessage: userMessage,
		BotResponse: botResponse,
		Context:     summarize(c),
	})
	if len(entries) > historyLimit {
		entries = entries[len(entries)-historyLimit:]
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to encode history", "user_id", id, "error", err)
		s.metrics.ObservePersistFailure("history")
		return
	}
	if err := s.writeAtomic(s.historyPath(id), data); err != nil {
		span.RecordError(err)
		s.logger.Error("failed to persist history", "user_id", id, "error", err)
		s.metrics.ObservePersistFailure("history")
	}
}

// RecentHistory returns up to limit most recent entries, oldest first.
func (s *FileStore) RecentHistory(ctx context.Context, userID string, limit int) []HistoryEntry {
	_, span := s.tracer.Start(ctx, "store.recent_history")
	defer span.End()

	entries := s.readHistory(CanonicalUserID(userID))
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries
}

// Reset discards the cached and durable context and persists a fresh one.
func (s *FileStore) Reset(ctx context.Context, userID string) *booking.AppointmentContext {
	id := CanonicalUserID(userID)

	s.mu.Lock()
	delete(s.contexts, id)
	s.mu.Unlock()

	c := booking.NewContext(id)
	s.Persist(ctx, userID, c)
	return c
}

// Cleanup evicts cached contexts idle longer than maxAge. Snapshot files on
// disk are left alone.
func (s *FileStore) Cleanup(maxAge time.Duration) int {
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

func (s *FileStore) contextPath(id string) string {
	return filepath.Join(s.dir, id+"_context.json")
}

func (s *FileStore) historyPath(id string) string {
	return filepath.Join(s.dir, id+"_history.json")
}

// loadSnapshot reads and validates the durable snapshot. A malformed file is
// treated as no existing context; it gets overwritten on the next persist.
func (s *FileStore) loadSnapshot(id string) *booking.AppointmentContext {
	data, err := os.ReadFile(s.contextPath(id))
	if err != nil {
		if !os.IsNotExist(err) {
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

// readHistory loads the history log; read failures yield an empty sequence.
func (s *FileStore) readHistory(id string) []HistoryEntry {
	data, err := os.ReadFile(s.historyPath(id))
	if err != nil {
		if !os.IsNotExist(err) {
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

// writeAtomic writes via a temp file and rename so readers never observe a
// partial snapshot.
func (s *FileStore) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
