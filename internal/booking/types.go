// Package booking holds the appointment-booking domain: conversation state,
// the static service catalogs, intent analysis results, and the state machine
// that advances a user's booking context one message at a time.
package booking

import (
	"fmt"
	"time"
)

// ConversationState identifies which slot-filling question is pending.
type ConversationState string

const (
	StateInitial                ConversationState = "initial"
	StateWaitingLocation        ConversationState = "waiting_location"
	StateWaitingCenterSelection ConversationState = "waiting_center_selection"
	StateWaitingTimeSlot        ConversationState = "waiting_time_slot"
	StateConfirmingAppointment  ConversationState = "confirming_appointment"
	StateCompleted              ConversationState = "completed"
)

// ParseConversationState decodes a persisted state value, rejecting anything
// outside the closed set.
func ParseConversationState(s string) (ConversationState, error) {
	switch ConversationState(s) {
	case StateInitial, StateWaitingLocation, StateWaitingCenterSelection,
		StateWaitingTimeSlot, StateConfirmingAppointment, StateCompleted:
		return ConversationState(s), nil
	}
	return "", fmt.Errorf("booking: unknown conversation state %q", s)
}

// ServiceCenter is an immutable reference entity from the static directory.
type ServiceCenter struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// String returns the customer-facing display text for the center.
func (c ServiceCenter) String() string {
	return fmt.Sprintf("Lucid Service Center - %s", c.City)
}

// TimeSlot is an immutable reference entity from the static slot catalog.
type TimeSlot struct {
	Time      string `json:"time"`
	Date      string `json:"date"`
	Available bool   `json:"available"`
}

// String returns the customer-facing display text for the slot.
func (s TimeSlot) String() string {
	return fmt.Sprintf("%s at %s", s.Date, s.Time)
}

// AppointmentContext is the mutable per-user aggregate tracking booking
// progress across turns. AppointmentSaved transitions false->true at most once
// per context lifetime, only when the booking is completed with both a center
// and a slot set.
type AppointmentContext struct {
	UserID           string            `json:"user_id"`
	State            ConversationState `json:"state"`
	City             string            `json:"city,omitempty"`
	SelectedCenter   *ServiceCenter    `json:"selected_center,omitempty"`
	SelectedTimeSlot *TimeSlot         `json:"selected_time_slot,omitempty"`
	AppointmentSaved bool              `json:"appointment_saved"`
	LastMessageTime  time.Time         `json:"last_message_time"`
}

// NewContext creates a fresh context in the initial state.
func NewContext(userID string) *AppointmentContext {
	return &AppointmentContext{
		UserID:          userID,
		State:           StateInitial,
		LastMessageTime: time.Now(),
	}
}

// Summary renders the compact context line used by debug endpoints.
func (c *AppointmentContext) Summary() string {
	summary := fmt.Sprintf("State: %s", c.State)
	if c.City != "" {
		summary += fmt.Sprintf(" | City: %s", c.City)
	}
	if c.SelectedCenter != nil {
		summary += fmt.Sprintf(" | Center: %s", c.SelectedCenter.Name)
	}
	if c.SelectedTimeSlot != nil {
		summary += fmt.Sprintf(" | Time: %s", c.SelectedTimeSlot)
	}
	return summary
}

// Intent labels produced by the analyzer.
const (
	IntentBooking         = "booking"
	IntentGreeting        = "greeting"
	IntentLocation        = "location"
	IntentCenterSelection = "center_selection"
	IntentTimeSelection   = "time_selection"
	IntentConfirmation    = "confirmation"
	IntentOther           = "other"
)

// ValidIntent reports whether s belongs to the fixed intent label set.
func ValidIntent(s string) bool {
	switch s {
	case IntentBooking, IntentGreeting, IntentLocation, IntentCenterSelection,
		IntentTimeSelection, IntentConfirmation, IntentOther:
		return true
	}
	return false
}

// IntentAnalysis is the per-turn result of analyzing one user message. It is
// ephemeral: only derived fields flow into the AppointmentContext.
type IntentAnalysis struct {
	Intent           string  `json:"intent"`
	City             string  `json:"city,omitempty"`
	TimePreference   string  `json:"time_preference,omitempty"`
	CenterPreference string  `json:"center_preference,omitempty"`
	Confidence       float64 `json:"confidence"`
	Reasoning        string  `json:"reasoning,omitempty"`
}
