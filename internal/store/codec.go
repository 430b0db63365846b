package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/driveline-ai/lucid-booking-bot/internal/booking"
)

// contextRecord is the durable snapshot shape: enum as string, timestamp as
// ISO-8601 text, nested center/slot field-for-field.
type contextRecord struct {
	UserID           string                 `json:"user_id"`
	State            string                 `json:"state"`
	City             string                 `json:"city,omitempty"`
	SelectedCenter   *booking.ServiceCenter `json:"selected_center,omitempty"`
	SelectedTimeSlot *booking.TimeSlot      `json:"selected_time_slot,omitempty"`
	AppointmentSaved bool                   `json:"appointment_saved"`
	LastMessageTime  string                 `json:"last_message_time"`
}

// encodeContext serializes a context snapshot.
func encodeContext(c *booking.AppointmentContext) ([]byte, error) {
	record := contextRecord{
		UserID:           c.UserID,
		State:            string(c.State),
		City:             c.City,
		SelectedCenter:   c.SelectedCenter,
		SelectedTimeSlot: c.SelectedTimeSlot,
		AppointmentSaved: c.AppointmentSaved,
		LastMessageTime:  c.LastMessageTime.Format(time.RFC3339Nano),
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("store: failed to encode context: %w", err)
	}
	return data, nil
}

// decodeContext deserializes and validates a snapshot. A bad enum value or a
// bad timestamp is an error, not a silently defaulted field.
func decodeContext(data []byte) (*booking.AppointmentContext, error) {
	var record contextRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("store: failed to decode context: %w", err)
	}

	state, err := booking.ParseConversationState(record.State)
	if err != nil {
		return nil, fmt.Errorf("store: invalid snapshot: %w", err)
	}

	lastMessageTime, err := time.Parse(time.RFC3339Nano, record.LastMessageTime)
	if err != nil {
		return nil, fmt.Errorf("store: invalid snapshot timestamp: %w", err)
	}

	return &booking.AppointmentContext{
		UserID:           record.UserID,
		State:            state,
		City:             record.City,
		SelectedCenter:   record.SelectedCenter,
		SelectedTimeSlot: record.SelectedTimeSlot,
		AppointmentSaved: record.AppointmentSaved,
		LastMessageTime:  lastMessageTime,
	}, nil
}
