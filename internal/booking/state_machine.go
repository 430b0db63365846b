package booking

import (
	"strings"
	"time"
)

// Recorder receives a completed booking exactly once. Implementations must
// not fail outward; write errors are logged and swallowed.
type Recorder interface {
	Record(c *AppointmentContext)
}

// TransitionResult reports what the transition did beyond mutating context.
type TransitionResult struct {
	// Recorded is true when this turn completed the booking and the
	// recorder was invoked.
	Recorded bool
}

// Transition advances the booking funnel for one turn. It is deterministic:
// given identical (context, intent) pairs it produces identical results, the
// only time-dependence being the last-activity refresh from now.
//
// The rules run in order and interact only through shared context fields:
//
//  1. adopt a directory-validated city if none is set
//  2. resolve a center preference against the city's center list
//  3. resolve a time preference against the slot catalog
//  4. advance the state keyed by intent label
//  5. record the appointment exactly once on completion
//  6. refresh the last-activity timestamp
func Transition(c *AppointmentContext, ia IntentAnalysis, rec Recorder, now time.Time) TransitionResult {
	// Rule 1: a later city mention never overwrites an established city;
	// cities absent from the directory are ignored so the user can be
	// re-prompted with the known list.
	if ia.City != "" && c.City == "" {
		if city, ok := CanonicalCity(ia.City); ok {
			c.City = city
		}
	}

	// Single-center shortcut: a city with exactly one center needs no
	// center-selection turn.
	if c.City != "" && c.SelectedCenter == nil {
		if centers := CentersByCity(c.City); len(centers) == 1 {
			center := centers[0]
			c.SelectedCenter = &center
		}
	}

	// Rule 2: case-insensitive substring match against the city's centers,
	// first match wins.
	if ia.CenterPreference != "" && c.City != "" {
		pref := strings.ToLower(ia.CenterPreference)
		for _, center := range CentersByCity(c.City) {
			if strings.Contains(strings.ToLower(center.Name), pref) {
				selected := center
				c.SelectedCenter = &selected
				break
			}
		}
	}

	// Rule 3: slot match is substring containment in either direction so
	// both "10 am works for me" and "10" style labels resolve.
	if ia.TimePreference != "" {
		pref := strings.ToLower(ia.TimePreference)
		for _, slot := range AvailableTimeSlots {
			label := strings.ToLower(slot.Time)
			if strings.Contains(pref, label) || strings.Contains(label, pref) {
				selected := slot
				c.SelectedTimeSlot = &selected
				break
			}
		}
	}

	// Rule 4: state advance keyed by intent label.
	switch ia.Intent {
	case IntentGreeting:
		if c.City != "" && c.State == StateInitial {
			c.State = StateWaitingCenterSelection
		}
	case IntentBooking:
		switch {
		case c.City == "":
			c.State = StateWaitingLocation
		case c.SelectedCenter == nil:
			c.State = StateWaitingCenterSelection
		case c.SelectedTimeSlot == nil:
			c.State = StateWaitingTimeSlot
		}
	case IntentLocation:
		if c.SelectedCenter != nil {
			c.State = StateWaitingTimeSlot
		} else {
			c.State = StateWaitingCenterSelection
		}
	case IntentCenterSelection:
		c.State = StateWaitingTimeSlot
	case IntentTimeSelection:
		if c.SelectedCenter != nil {
			if c.SelectedTimeSlot != nil {
				c.State = StateCompleted
			} else {
				c.State = StateConfirmingAppointment
			}
		}
	case IntentConfirmation:
		c.State = StateCompleted
	}

	// Rule 5: exactly-once recording. Re-entering with AppointmentSaved
	// already true is a no-op. The flag is not rolled back on recorder
	// failure; the log is lossy by choice.
	var result TransitionResult
	if c.State == StateCompleted && c.SelectedCenter != nil && c.SelectedTimeSlot != nil && !c.AppointmentSaved {
		if rec != nil {
			rec.Record(c)
		}
		c.AppointmentSaved = true
		result.Recorded = true
	}

	// Rule 6.
	c.LastMessageTime = now

	return result
}
