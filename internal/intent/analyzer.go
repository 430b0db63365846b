package intent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/driveline-ai/lucid-booking-bot/internal/booking"
	"github.com/driveline-ai/lucid-booking-bot/internal/observability/metrics"
	"github.com/driveline-ai/lucid-booking-bot/pkg/logging"
)

const (
	sourceLLM      = "llm"
	sourceFallback = "fallback"
)

// Analyzer classifies user messages. Analyze is a total function: whatever
// the generation capability returns (or fails to return), the caller always
// receives a well-formed analysis.
type Analyzer struct {
	llm     LLMClient
	timeout time.Duration
	logger  *logging.Logger
	metrics *metrics.ConversationMetrics
}

// NewAnalyzer wires an analyzer around the supplied LLM client. metrics may
// be nil.
func NewAnalyzer(llm LLMClient, timeout time.Duration, logger *logging.Logger, m *metrics.ConversationMetrics) *Analyzer {
	if llm == nil {
		llm = DisabledClient{}
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Analyzer{
		llm:     llm,
		timeout: timeout,
		logger:  logger,
		metrics: m,
	}
}

// Analyze extracts a typed intent for one message. historySummary may be
// empty; it is interpolated into the prompt verbatim.
func (a *Analyzer) Analyze(ctx context.Context, message string, c *booking.AppointmentContext, historySummary string) booking.IntentAnalysis {
	contextSummary := describeContext(c)
	if historySummary == "" {
		historySummary = contextSummary
	}

	prompt := IntentPrompt(
		message,
		contextSummary,
		historySummary,
		booking.FormatCentersForCity(c.City),
		booking.FormatAvailableSlots(),
	)

	llmCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.llm.Complete(llmCtx, LLMRequest{Prompt: prompt, Temperature: 0, MaxTokens: 512})
	if err != nil {
		a.logger.Warn("intent analysis falling back to keywords", "error", err, "user_id", c.UserID)
		return a.fallback(message, c)
	}

	fields, strategy := Recover(resp.Text)
	a.metrics.ObserveRecovery(strategy)
	if fields == nil {
		a.logger.Warn("no structure recovered from llm response", "user_id", c.UserID)
		return a.fallback(message, c)
	}

	analysis, err := analysisFromFields(fields)
	if err != nil {
		a.logger.Warn("recovered fields failed validation", "error", err, "user_id", c.UserID)
		return a.fallback(message, c)
	}

	a.metrics.ObserveMessage(analysis.Intent, sourceLLM)
	return analysis
}

func (a *Analyzer) fallback(message string, c *booking.AppointmentContext) booking.IntentAnalysis {
	analysis := FallbackAnalysis(message, c)
	a.metrics.ObserveMessage(analysis.Intent, sourceFallback)
	return analysis
}

// analysisFromFields builds a typed analysis from recovered fields, dropping
// empty/null values, validating the intent label, and clamping confidence to
// [0, 1].
func analysisFromFields(fields map[string]any) (booking.IntentAnalysis, error) {
	analysis := booking.IntentAnalysis{Confidence: 0.5}

	intentLabel, ok := cleanString(fields["intent"])
	if !ok {
		return booking.IntentAnalysis{}, fmt.Errorf("intent: missing intent field")
	}
	intentLabel = strings.ToLower(intentLabel)
	if !booking.ValidIntent(intentLabel) {
		return booking.IntentAnalysis{}, fmt.Errorf("intent: unknown intent label %q", intentLabel)
	}
	analysis.Intent = intentLabel

	if city, ok := cleanString(fields["city"]); ok {
		analysis.City = city
	}
	if pref, ok := cleanString(fields["time_preference"]); ok {
		analysis.TimePreference = pref
	}
	if pref, ok := cleanString(fields["center_preference"]); ok {
		analysis.CenterPreference = pref
	}
	if reasoning, ok := cleanString(fields["reasoning"]); ok {
		analysis.Reasoning = reasoning
	}

	if raw, present := fields["confidence"]; present {
		if confidence, ok := raw.(float64); ok {
			analysis.Confidence = clamp(confidence, 0, 1)
		}
	}

	return analysis, nil
}

// cleanString stringifies a recovered value, rejecting empty/null/none
// (case-insensitive) the way the recovery contract requires.
func cleanString(raw any) (string, bool) {
	if raw == nil {
		return "", false
	}
	value := strings.TrimSpace(fmt.Sprintf("%v", raw))
	if isNullish(value) {
		return "", false
	}
	return value, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func describeContext(c *booking.AppointmentContext) string {
	center := "<nil>"
	if c.SelectedCenter != nil {
		center = c.SelectedCenter.Name
	}
	city := "<nil>"
	if c.City != "" {
		city = c.City
	}
	return fmt.Sprintf("State: %s, City: %s, Center: %s", c.State, city, center)
}

var bookingKeywords = []string{"book", "schedule", "appointment", "service", "servicing", "check-up", "maintenance"}

var greetingKeywords = []string{"hello", "hi", "hey", "good morning", "good afternoon"}

var timeKeywords = []string{"am", "pm", "morning", "afternoon", "evening"}

// FallbackAnalysis is the deterministic keyword heuristic used whenever the
// generation capability or the recovery pipeline fails. It is total: every
// (message, context) pair yields exactly one well-formed analysis.
func FallbackAnalysis(message string, c *booking.AppointmentContext) booking.IntentAnalysis {
	lower := strings.ToLower(message)

	for _, kw := range bookingKeywords {
		if strings.Contains(lower, kw) {
			return booking.IntentAnalysis{
				Intent:     booking.IntentBooking,
				City:       booking.FindCityInText(message),
				Confidence: 0.8,
			}
		}
	}

	for _, kw := range greetingKeywords {
		if strings.Contains(lower, kw) {
			return booking.IntentAnalysis{Intent: booking.IntentGreeting, Confidence: 0.9}
		}
	}

	if city := booking.FindCityInText(message); city != "" || c.State == booking.StateWaitingLocation {
		return booking.IntentAnalysis{Intent: booking.IntentLocation, City: city, Confidence: 0.7}
	}

	for _, kw := range timeKeywords {
		if strings.Contains(lower, kw) {
			return booking.IntentAnalysis{Intent: booking.IntentTimeSelection, TimePreference: message, Confidence: 0.7}
		}
	}
	if c.State == booking.StateWaitingTimeSlot {
		return booking.IntentAnalysis{Intent: booking.IntentTimeSelection, TimePreference: message, Confidence: 0.7}
	}

	return booking.IntentAnalysis{Intent: booking.IntentOther, Confidence: 0.5}
}
