package audit

import (
	"context"
	"log/slog"

	"github.com/Domenick1991/medcare/internal/kafka"
)

// Recorder writes one structured line per consumed booking event.
type Recorder struct {
	log *slog.Logger
}

func NewRecorder(log *slog.Logger) *Recorder {
	return &Recorder{log: log.With("component", "audit")}
}

func (r *Recorder) Record(ctx context.Context, event kafka.BookingEvent) error {
	r.log.InfoContext(ctx, "booking event",
		"event_id", event.ID,
		"type", event.Type,
		"booking_id", event.BookingID,
		"user_email", event.UserEmail,
		"driver_id", event.DriverID,
		"status", event.Status,
		"occurred_at", event.OccurredAt,
	)
	return nil
}
