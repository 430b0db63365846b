package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/driveline-ai/lucid-booking-bot/internal/booking"
	"github.com/driveline-ai/lucid-booking-bot/internal/intent"
	"github.com/driveline-ai/lucid-booking-bot/internal/store"
	"github.com/driveline-ai/lucid-booking-bot/pkg/logging"
)

// apologyMessage is returned whenever a turn panics; the conversation must
// always produce a reply.
const apologyMessage = "I'm sorry, I encountered an error. Please try again."

// historyWindow is how many recent turns are summarized into prompts.
const historyWindow = 5

// Analyzer classifies one user message.
type Analyzer interface {
	Analyze(ctx context.Context, message string, c *booking.AppointmentContext, historySummary string) booking.IntentAnalysis
}

var _ Analyzer = (*intent.Analyzer)(nil)

// Service processes inbound messages end to end. Turns for the same user are
// serialized through the store's per-user lock; turns for different users run
// concurrently.
type Service struct {
	store     store.ContextStore
	analyzer  Analyzer
	responder *Responder
	recorder  booking.Recorder
	logger    *logging.Logger
	now       func() time.Time
}

// NewService wires the conversation pipeline.
func NewService(s store.ContextStore, analyzer Analyzer, responder *Responder, rec booking.Recorder, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:     s,
		analyzer:  analyzer,
		responder: responder,
		recorder:  rec,
		logger:    logger.Named("chat"),
		now:       time.Now,
	}
}

// ProcessMessage handles one inbound message and returns the reply. It never
// panics outward and never returns an empty reply.
func (s *Service) ProcessMessage(ctx context.Context, userID, message string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic while processing message", "user_id", userID, "panic", fmt.Sprintf("%v", r))
			reply = apologyMessage
		}
	}()

	unlock := s.store.Lock(userID)
	defer unlock()

	c := s.store.Get(ctx, userID)
	historySummary := s.summarizeHistory(ctx, userID)

	analysis := s.analyzer.Analyze(ctx, message, c, historySummary)
	result := booking.Transition(c, analysis, s.recorder, s.now())
	if result.Recorded {
		s.logger.Info("booking completed", "user_id", c.UserID, "city", c.City)
	}

	reply = s.responder.Respond(ctx, message, analysis, c, historySummary)

	s.store.Persist(ctx, userID, c)
	s.store.AppendHistory(ctx, userID, message, reply)
	return reply
}

// Reset discards the user's conversation and starts over.
func (s *Service) Reset(ctx context.Context, userID string) *booking.AppointmentContext {
	unlock := s.store.Lock(userID)
	defer unlock()
	return s.store.Reset(ctx, userID)
}

// ContextSummary returns the debug view of a user's context. It snapshots
// under the per-user lock so readers never observe a turn in progress, and
// hands back a copy so callers cannot mutate the live context.
func (s *Service) ContextSummary(ctx context.Context, userID string) (string, *booking.AppointmentContext) {
	unlock := s.store.Lock(userID)
	defer unlock()

	snapshot := *s.store.Get(ctx, userID)
	return snapshot.Summary(), &snapshot
}

// Cleanup evicts contexts idle longer than maxAge and returns the count.
func (s *Service) Cleanup(maxAge time.Duration) int {
	return s.store.Cleanup(maxAge)
}

// summarizeHistory renders the recent turns as prompt-ready text, oldest
// first. An empty history yields an empty string.
func (s *Service) summarizeHistory(ctx context.Context, userID string) string {
	entries := s.store.RecentHistory(ctx, userID, historyWindow)
	if len(entries) == 0 {
		return ""
	}
	lines := make([]string, 0, len(entries)*2)
	for _, e := range entries {
		lines = append(lines, "User: "+e.UserMessage, "Assistant: "+e.BotResponse)
	}
	return strings.Join(lines, "\n")
}
