package recorder

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/driveline-ai/lucid-booking-bot/internal/booking"
)

func completedContext() *booking.AppointmentContext {
	return &booking.AppointmentContext{
		UserID: "+966501234567",
		State:  booking.StateCompleted,
		City:   "Riyadh",
		SelectedCenter: &booking.ServiceCenter{
			Name: "Lucid Riyadh Downtown",
			City: "Riyadh",
		},
		SelectedTimeSlot: &booking.TimeSlot{
			Time: "10:00 AM", Date: "July 17th", Available: true,
		},
	}
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRecordWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appointments.csv")
	r := NewCSVRecorder(path, nil, nil)
	r.now = func() time.Time {
		return time.Date(2026, 7, 10, 14, 30, 0, 0, time.UTC)
	}

	r.Record(completedContext())
	r.Record(completedContext())

	rows := readRows(t, path)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"user_id", "city", "center", "date", "time", "booking_timestamp"}, rows[0])
	require.Equal(t, []string{
		"+966501234567", "Riyadh", "Lucid Service Center - Riyadh",
		"July 17th", "10:00 AM", "2026-07-10T14:30:00",
	}, rows[1])
	require.Equal(t, rows[1], rows[2])
}

func TestRecordAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appointments.csv")
	require.NoError(t, os.WriteFile(path, []byte("user_id,city,center,date,time,booking_timestamp\n"), 0o644))

	r := NewCSVRecorder(path, nil, nil)
	r.Record(completedContext())

	rows := readRows(t, path)
	require.Len(t, rows, 2, "existing header must not be duplicated")
}

func TestRecordRefusesIncompleteContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appointments.csv")
	r := NewCSVRecorder(path, nil, nil)

	c := completedContext()
	c.SelectedTimeSlot = nil
	r.Record(c)

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "no file should be created for an incomplete booking")
}

func TestRecordSwallowsWriteFailure(t *testing.T) {
	// Point at a path whose parent does not exist; Record must not panic.
	r := NewCSVRecorder(filepath.Join(t.TempDir(), "missing", "appointments.csv"), nil, nil)
	r.Record(completedContext())
}
