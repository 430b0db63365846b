package booking

import (
	"testing"
	"time"
)

type fakeRecorder struct {
	calls []AppointmentContext
}

func (r *fakeRecorder) Record(c *AppointmentContext) {
	r.calls = append(r.calls, *c)
}

func TestTransitionBookingFunnel(t *testing.T) {
	rec := &fakeRecorder{}
	c := NewContext("U1")
	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)

	// Turn 1: booking intent with a multi-center city.
	Transition(c, IntentAnalysis{Intent: IntentBooking, City: "Riyadh", Confidence: 0.9}, rec, now)
	if c.City != "Riyadh" {
		t.Fatalf("expected city Riyadh, got %q", c.City)
	}
	if c.State != StateWaitingCenterSelection {
		t.Fatalf("expected waiting_center_selection, got %s", c.State)
	}
	if c.SelectedCenter != nil {
		t.Fatal("multi-center city must not auto-select a center")
	}

	// Turn 2: center preference resolved by substring.
	Transition(c, IntentAnalysis{Intent: IntentCenterSelection, CenterPreference: "downtown", Confidence: 0.9}, rec, now)
	if c.SelectedCenter == nil || c.SelectedCenter.Name != "Lucid Service Center - Riyadh Downtown" {
		t.Fatalf("expected downtown center, got %+v", c.SelectedCenter)
	}
	if c.State != StateWaitingTimeSlot {
		t.Fatalf("expected waiting_time_slot, got %s", c.State)
	}

	// Turn 3: concrete slot match completes the booking.
	res := Transition(c, IntentAnalysis{Intent: IntentTimeSelection, TimePreference: "10 AM", Confidence: 0.9}, rec, now)
	if c.SelectedTimeSlot == nil || c.SelectedTimeSlot.Time != "10 AM" || c.SelectedTimeSlot.Date != "July 17th" {
		t.Fatalf("expected 10 AM July 17th slot, got %+v", c.SelectedTimeSlot)
	}
	if c.State != StateCompleted {
		t.Fatalf("expected completed, got %s", c.State)
	}
	if !res.Recorded || !c.AppointmentSaved {
		t.Fatal("expected recorder invocation and saved flag")
	}
	if len(rec.calls) != 1 {
		t.Fatalf("expected exactly one recording, got %d", len(rec.calls))
	}

	// Re-entering completed state is a no-op for the recorder.
	Transition(c, IntentAnalysis{Intent: IntentConfirmation, Confidence: 0.9}, rec, now)
	if len(rec.calls) != 1 {
		t.Fatalf("expected recorder to stay at one call, got %d", len(rec.calls))
	}
}

func TestTransitionSingleCenterShortcut(t *testing.T) {
	c := NewContext("U2")
	now := time.Now()

	Transition(c, IntentAnalysis{Intent: IntentLocation, City: "Makkah", Confidence: 0.7}, nil, now)
	if c.SelectedCenter == nil || c.SelectedCenter.City != "Makkah" {
		t.Fatalf("expected the Makkah center to be auto-selected, got %+v", c.SelectedCenter)
	}
	if c.State != StateWaitingTimeSlot {
		t.Fatalf("single-center city should skip center selection, got %s", c.State)
	}
}

func TestTransitionAdoptsEveryDirectoryCity(t *testing.T) {
	// The name FindCityInText reports must round-trip into adoption; the
	// hyphenated-key city ("khamis-mushait" / "Khamis Mushait") is the one
	// that diverges between key and display name.
	for _, key := range SortedCityKeys() {
		display := serviceCenters[key][0].City
		found := FindCityInText("I'm in " + display)
		if found != display {
			t.Fatalf("FindCityInText(%q) = %q", display, found)
		}

		c := NewContext("U3")
		Transition(c, IntentAnalysis{Intent: IntentBooking, City: found}, nil, time.Now())
		if c.City != display {
			t.Fatalf("city %q from analysis was not adopted, context has %q", found, c.City)
		}
	}
}

func TestTransitionBooksKhamisMushait(t *testing.T) {
	rec := &fakeRecorder{}
	c := NewContext("U3")
	now := time.Now()

	Transition(c, IntentAnalysis{Intent: IntentBooking, City: "Khamis Mushait"}, rec, now)
	if c.City != "Khamis Mushait" {
		t.Fatalf("expected Khamis Mushait adopted, got %q", c.City)
	}
	if c.SelectedCenter == nil {
		t.Fatal("single-center city must auto-select its center")
	}

	res := Transition(c, IntentAnalysis{Intent: IntentTimeSelection, TimePreference: "2 PM"}, rec, now)
	if c.State != StateCompleted || !res.Recorded || len(rec.calls) != 1 {
		t.Fatalf("expected completed booking with one recording, got state %s, recorded %v", c.State, res.Recorded)
	}
}

func TestTransitionUnknownCityIgnored(t *testing.T) {
	c := NewContext("U3")
	Transition(c, IntentAnalysis{Intent: IntentLocation, City: "Dubai", Confidence: 0.7}, nil, time.Now())
	if c.City != "" {
		t.Fatalf("unknown city must not be adopted, got %q", c.City)
	}
	if c.State != StateWaitingCenterSelection {
		t.Fatalf("location intent still advances, got %s", c.State)
	}
}

func TestTransitionCityNotOverwritten(t *testing.T) {
	c := NewContext("U4")
	now := time.Now()
	Transition(c, IntentAnalysis{Intent: IntentBooking, City: "Jeddah"}, nil, now)
	Transition(c, IntentAnalysis{Intent: IntentLocation, City: "Riyadh"}, nil, now)
	if c.City != "Jeddah" {
		t.Fatalf("established city must not be overwritten, got %q", c.City)
	}
}

func TestTransitionGreeting(t *testing.T) {
	c := NewContext("U5")
	now := time.Now()

	Transition(c, IntentAnalysis{Intent: IntentGreeting}, nil, now)
	if c.State != StateInitial {
		t.Fatalf("greeting without city stays initial, got %s", c.State)
	}

	c.City = "Riyadh"
	Transition(c, IntentAnalysis{Intent: IntentGreeting}, nil, now)
	if c.State != StateWaitingCenterSelection {
		t.Fatalf("greeting with known city advances, got %s", c.State)
	}
}

func TestTransitionTimeSelectionWithoutCenter(t *testing.T) {
	c := NewContext("U6")
	Transition(c, IntentAnalysis{Intent: IntentTimeSelection, TimePreference: "10 AM"}, nil, time.Now())
	if c.State != StateInitial {
		t.Fatalf("time selection without center must not advance, got %s", c.State)
	}
	if c.SelectedTimeSlot == nil {
		t.Fatal("slot preference should still resolve")
	}
}

func TestTransitionVagueTimeConfirms(t *testing.T) {
	c := NewContext("U7")
	now := time.Now()
	Transition(c, IntentAnalysis{Intent: IntentBooking, City: "Makkah"}, nil, now)
	Transition(c, IntentAnalysis{Intent: IntentTimeSelection, TimePreference: "sometime in the afternoon"}, nil, now)
	if c.SelectedTimeSlot != nil {
		t.Fatalf("vague preference must not resolve a slot, got %+v", c.SelectedTimeSlot)
	}
	if c.State != StateConfirmingAppointment {
		t.Fatalf("expected confirming_appointment, got %s", c.State)
	}

	// Confirmation without a slot does not record.
	rec := &fakeRecorder{}
	res := Transition(c, IntentAnalysis{Intent: IntentConfirmation}, rec, now)
	if c.State != StateCompleted {
		t.Fatalf("expected completed, got %s", c.State)
	}
	if res.Recorded || len(rec.calls) != 0 {
		t.Fatal("recording requires both center and slot")
	}
}

func TestTransitionDeterminism(t *testing.T) {
	now := time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC)
	ia := IntentAnalysis{Intent: IntentBooking, City: "Riyadh", CenterPreference: "north", TimePreference: "11 am"}

	a := NewContext("U8")
	b := NewContext("U8")
	Transition(a, ia, nil, now)
	Transition(b, ia, nil, now)

	if a.State != b.State || a.City != b.City {
		t.Fatal("identical inputs must produce identical state")
	}
	if (a.SelectedCenter == nil) != (b.SelectedCenter == nil) {
		t.Fatal("identical inputs must produce identical center selection")
	}
	if a.SelectedCenter != nil && a.SelectedCenter.Name != b.SelectedCenter.Name {
		t.Fatal("identical inputs must select the same center")
	}
	if a.SelectedTimeSlot == nil || b.SelectedTimeSlot == nil || *a.SelectedTimeSlot != *b.SelectedTimeSlot {
		t.Fatal("identical inputs must select the same slot")
	}
}

func TestTransitionRefreshesActivity(t *testing.T) {
	c := NewContext("U9")
	c.LastMessageTime = time.Time{}
	now := time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC)
	Transition(c, IntentAnalysis{Intent: IntentOther}, nil, now)
	if !c.LastMessageTime.Equal(now) {
		t.Fatalf("expected activity refresh to %s, got %s", now, c.LastMessageTime)
	}
}
