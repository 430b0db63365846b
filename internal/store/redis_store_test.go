package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/driveline-ai/lucid-booking-bot/internal/booking"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, 0, nil, nil), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	c := booking.NewContext("+966501234567")
	c.State = booking.StateWaitingCenterSelection
	c.City = "Riyadh"
	s.Persist(ctx, "whatsapp:+966501234567", c)

	if !mr.Exists("context:+966501234567") {
		t.Fatal("snapshot key missing in redis")
	}

	// Drop the cache to force a reload from redis.
	s.mu.Lock()
	s.contexts = make(map[string]*booking.AppointmentContext)
	s.mu.Unlock()

	got := s.Get(ctx, "+966501234567")
	if got.State != booking.StateWaitingCenterSelection || got.City != "Riyadh" {
		t.Fatalf("reloaded context = %+v", got)
	}
}

func TestRedisStoreMalformedSnapshot(t *testing.T) {
	s, mr := newTestRedisStore(t)
	mr.Set("context:U1", `{"state": "nonsense"}`)

	c := s.Get(context.Background(), "U1")
	if c.State != booking.StateInitial {
		t.Fatalf("malformed snapshot must yield a fresh context, got %s", c.State)
	}
}

func TestRedisStoreHistoryBounded(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	for i := 0; i < 55; i++ {
		s.AppendHistory(ctx, "U1", "hi", "hello")
	}
	entries := s.RecentHistory(ctx, "U1", 0)
	if len(entries) != historyLimit {
		t.Fatalf("history length = %d, want %d", len(entries), historyLimit)
	}
}

func TestRedisStoreReset(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	c := s.Get(ctx, "U1")
	c.City = "Dammam"
	c.State = booking.StateCompleted
	s.Persist(ctx, "U1", c)

	fresh := s.Reset(ctx, "U1")
	if fresh.State != booking.StateInitial || fresh.City != "" {
		t.Fatalf("reset context not fresh: %+v", fresh)
	}

	s.mu.Lock()
	s.contexts = make(map[string]*booking.AppointmentContext)
	s.mu.Unlock()
	if got := s.Get(ctx, "U1"); got.State != booking.StateInitial {
		t.Fatalf("durable snapshot still stale: %s", got.State)
	}
}
