// Package chat orchestrates one conversation turn: intent analysis, the
// booking state machine, reply generation, and persistence.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/driveline-ai/lucid-booking-bot/internal/booking"
	"github.com/driveline-ai/lucid-booking-bot/internal/intent"
	"github.com/driveline-ai/lucid-booking-bot/pkg/logging"
)

// Responder turns an analyzed message plus the advanced context into the
// reply text. Completed bookings get a deterministic confirmation; everything
// else is generated, with state-keyed fallbacks when generation fails.
type Responder struct {
	llm     intent.LLMClient
	timeout time.Duration
	logger  *logging.Logger
}

// NewResponder wires a responder around the supplied LLM client. A nil client
// means every reply comes from the deterministic fallbacks.
func NewResponder(llm intent.LLMClient, timeout time.Duration, logger *logging.Logger) *Responder {
	if llm == nil {
		llm = intent.DisabledClient{}
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Responder{llm: llm, timeout: timeout, logger: logger}
}

// Respond generates the reply for one turn. The context must already have
// been advanced by the state machine.
func (r *Responder) Respond(ctx context.Context, userMessage string, analysis booking.IntentAnalysis, c *booking.AppointmentContext, historySummary string) string {
	// A booking completed this turn always gets the canonical confirmation,
	// never a generated paraphrase.
	if c.State == booking.StateCompleted && c.SelectedCenter != nil && c.SelectedTimeSlot != nil {
		return confirmationMessage(c)
	}

	prompt := intent.ResponsePrompt(
		userMessage,
		fmt.Sprintf("%s (confidence %.2f)", analysis.Intent, analysis.Confidence),
		c.Summary(),
		historySummary,
		booking.FormatCentersForCity(c.City),
		booking.FormatAvailableSlots(),
	)

	llmCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.llm.Complete(llmCtx, LLMRequestFor(prompt))
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		if err != nil {
			r.logger.Warn("reply generation failed, using canned response", "error", err, "user_id", c.UserID)
		}
		return fallbackMessage(c)
	}
	return strings.TrimSpace(resp.Text)
}

// LLMRequestFor builds the standard reply-generation request.
func LLMRequestFor(prompt string) intent.LLMRequest {
	return intent.LLMRequest{Prompt: prompt, Temperature: 0.7, MaxTokens: 512}
}

// confirmationMessage renders the final booking confirmation from the
// selected center and slot.
func confirmationMessage(c *booking.AppointmentContext) string {
	center := c.SelectedCenter
	slot := c.SelectedTimeSlot
	return fmt.Sprintf(
		"Perfect! Your appointment is confirmed.\n\n"+
			"Service Center: %s\n"+
			"Address: %s\n"+
			"Phone: %s\n"+
			"Time: %s at %s\n\n"+
			"We look forward to seeing you! If you need to reschedule, just let me know.",
		center.Name, center.Address, center.Phone, slot.Date, slot.Time,
	)
}

// fallbackMessage is the deterministic, state-keyed reply used when
// generation is unavailable. Each branch re-asks the pending question.
func fallbackMessage(c *booking.AppointmentContext) string {
	switch c.State {
	case booking.StateWaitingLocation:
		return fmt.Sprintf(
			"I'd be happy to help you book a service appointment. Which city are you in? We have service centers in: %s.",
			strings.Join(booking.KnownCities(), ", "),
		)
	case booking.StateWaitingCenterSelection:
		if c.City == "" {
			// The user named a city we do not serve; re-prompt with the list.
			return fmt.Sprintf(
				"I'm sorry, we don't have a service center in that city yet. We currently serve: %s. Which one works for you?",
				strings.Join(booking.KnownCities(), ", "),
			)
		}
		return fmt.Sprintf(
			"Here are our service centers in %s:\n%s\nWhich one would you prefer?",
			c.City, booking.FormatCentersForCity(c.City),
		)
	case booking.StateWaitingTimeSlot:
		return fmt.Sprintf(
			"Great choice! Here are the available time slots: %s. Which one works best for you?",
			booking.FormatAvailableSlots(),
		)
	case booking.StateConfirmingAppointment:
		return fmt.Sprintf(
			"Just to confirm: you'd like an appointment at %s. Available slots are %s. Shall I book one of these for you?",
			centerName(c), booking.FormatAvailableSlots(),
		)
	case booking.StateCompleted:
		return "Your appointment is all set. Is there anything else I can help you with?"
	default:
		return "Hello! Welcome to Lucid Motors service booking. I can help you schedule a service appointment. Which city are you in?"
	}
}

func centerName(c *booking.AppointmentContext) string {
	if c.SelectedCenter != nil {
		return c.SelectedCenter.Name
	}
	return "one of our service centers"
}
