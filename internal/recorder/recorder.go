// Package recorder appends confirmed appointments to a durable CSV log,
// exactly one row per completed booking.
package recorder

import (
	"encoding/csv"
	"os"
	"sync"
	"time"

	"github.com/driveline-ai/lucid-booking-bot/internal/booking"
	"github.com/driveline-ai/lucid-booking-bot/internal/observability/metrics"
	"github.com/driveline-ai/lucid-booking-bot/pkg/logging"
)

var csvHeader = []string{"user_id", "city", "center", "date", "time", "booking_timestamp"}

// CSVRecorder implements booking.Recorder against an append-only CSV file.
// Write failures are logged and swallowed: a lost row never blocks the
// conversation from completing.
type CSVRecorder struct {
	path    string
	logger  *logging.Logger
	metrics *metrics.ConversationMetrics
	now     func() time.Time

	mu sync.Mutex
}

var _ booking.Recorder = (*CSVRecorder)(nil)

// NewCSVRecorder records appointments to path. metrics may be nil.
func NewCSVRecorder(path string, logger *logging.Logger, m *metrics.ConversationMetrics) *CSVRecorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &CSVRecorder{
		path:    path,
		logger:  logger.Named("recorder"),
		metrics: m,
		now:     time.Now,
	}
}

// Record appends one appointment row, writing the header first when the file
// does not exist yet.
func (r *CSVRecorder) Record(c *booking.AppointmentContext) {
	if c.SelectedCenter == nil || c.SelectedTimeSlot == nil {
		r.logger.Error("refusing to record incomplete appointment", "user_id", c.UserID)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	writeHeader := false
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		writeHeader = true
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		r.logger.Error("failed to open appointments file", "path", r.path, "error", err)
		r.metrics.ObservePersistFailure("appointment")
		return
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(csvHeader); err != nil {
			r.logger.Error("failed to write appointments header", "error", err)
			r.metrics.ObservePersistFailure("appointment")
			return
		}
	}
	row := []string{
		c.UserID,
		c.City,
		c.SelectedCenter.String(),
		c.SelectedTimeSlot.Date,
		c.SelectedTimeSlot.Time,
		r.now().Format("2006-01-02T15:04:05"),
	}
	if err := w.Write(row); err != nil {
		r.logger.Error("failed to write appointment row", "user_id", c.UserID, "error", err)
		r.metrics.ObservePersistFailure("appointment")
		return
	}
	w.Flush()
	if err := w.Error(); err != nil {
		r.logger.Error("failed to flush appointment row", "user_id", c.UserID, "error", err)
		r.metrics.ObservePersistFailure("appointment")
		return
	}

	r.metrics.ObserveBooking()
	r.logger.Info("appointment recorded",
		"user_id", c.UserID,
		"city", c.City,
		"center", c.SelectedCenter.Name,
		"slot", c.SelectedTimeSlot.String(),
	)
}
