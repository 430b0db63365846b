// Package store owns the durable per-user conversation state: the booking
// context snapshot and a bounded history of turns. It is the sole writer of
// the durable copies; concurrent callers for the same user id serialize
// through Lock.
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/driveline-ai/lucid-booking-bot/internal/booking"
)

// historyLimit bounds the per-user history log to the most recent entries.
const historyLimit = 50

// ContextSummary is the redacted projection of a context stored with each
// history entry. It deliberately omits the full center/slot payloads.
type ContextSummary struct {
	State             string `json:"state"`
	City              string `json:"city,omitempty"`
	HasSelectedCenter bool   `json:"has_selected_center"`
	HasSelectedTime   bool   `json:"has_selected_time"`
}

// HistoryEntry is one immutable conversation turn.
type HistoryEntry struct {
	Timestamp   time.Time      `json:"timestamp"`
	UserMessage string         `json:"user_message"`
	BotResponse string         `json:"bot_response"`
	Context     ContextSummary `json:"context"`
}

// ContextStore manages per-user booking contexts and history. Persistence
// failures are logged and swallowed: the in-memory context stays
// authoritative for the process lifetime even when the durable copy is stale.
type ContextStore interface {
	// Get returns the cached context, reloads the durable snapshot, or
	// creates a fresh context, in that order. It never fails.
	Get(ctx context.Context, userID string) *booking.AppointmentContext
	// Persist overwrites the user's durable snapshot. Atomic from the
	// caller's perspective: no partial write is ever visible.
	Persist(ctx context.Context, userID string, c *booking.AppointmentContext)
	// AppendHistory records one turn and truncates to the 50 most recent.
	AppendHistory(ctx context.Context, userID, userMessage, botResponse string)
	// RecentHistory returns up to limit most recent entries, oldest first.
	// Read failures yield an empty slice.
	RecentHistory(ctx context.Context, userID string, limit int) []HistoryEntry
	// Reset discards cached and durable context and persists a fresh one.
	Reset(ctx context.Context, userID string) *booking.AppointmentContext
	// Cleanup drops cached contexts idle longer than maxAge. Durable
	// snapshots are untouched. Returns the number of evictions.
	Cleanup(maxAge time.Duration) int
	// Lock serializes processing for one canonical user id. The returned
	// function releases the lock.
	Lock(userID string) func()
}

// CanonicalUserID strips any transport prefix: the substring after the last
// colon, or the whole string when there is none (e.g. "whatsapp:+966..." ->
// "+966...").
func CanonicalUserID(userID string) string {
	if i := strings.LastIndex(userID, ":"); i >= 0 {
		return userID[i+1:]
	}
	return userID
}

// summarize builds the redacted context projection for history entries.
func summarize(c *booking.AppointmentContext) ContextSummary {
	return ContextSummary{
		State:             string(c.State),
		City:              c.City,
		HasSelectedCenter: c.SelectedCenter != nil,
		HasSelectedTime:   c.SelectedTimeSlot != nil,
	}
}

// keyedMutex hands out one mutex per canonical user id.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
