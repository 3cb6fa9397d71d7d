package jobs

import (
	"context"
	"time"

	"carrental-backend/internal/logger"
)

// ExpirePendingBookings cancels PENDING bookings whose payment never landed
// inside the gateway's authorization validity window, freeing their
// intervals. The listing here is only a candidate scan; ExpireBooking
// re-checks PENDING under the booking row lock, so a booking confirmed
// between list and cancel survives. One failure never stops the sweep.
func (jr *JobRunner) ExpirePendingBookings() {
	jr.runWithRecovery("ExpirePendingBookings", func() {
		ctx := context.Background()
		cutoff := time.Now().UTC().Add(-jr.config.Booking.PendingExpiry())

		ids, err := jr.store.ListExpiredPending(ctx, cutoff, int32(jr.config.Booking.ExpirySweepBatch))
		if err != nil {
			logger.Error("Failed to list expired pending bookings", "error", err)
			return
		}

		expired := 0
		for _, id := range ids {
			if _, err := jr.bookings.ExpireBooking(ctx, id); err != nil {
				logger.Error("Failed to expire pending booking", "booking_id", id, "error", err)
				continue
			}
			expired++
			logger.Debug("Expired pending booking", "booking_id", id, "cutoff", cutoff)
		}

		logger.Info("Expired pending bookings", "count", expired, "candidates", len(ids))
	})
}

// ReportUnmatchedEvents surfaces gateway events that never matched a payment
// leg. They stay in the processed-log; this job only makes them visible so
// an operator can reconcile them against the provider dashboard.
func (jr *JobRunner) ReportUnmatchedEvents() {
	jr.runWithRecovery("ReportUnmatchedEvents", func() {
		ctx := context.Background()

		events, err := jr.store.ListUnmatched(ctx, int32(jr.config.Booking.ExpirySweepBatch))
		if err != nil {
			logger.Error("Failed to list unmatched gateway events", "error", err)
			return
		}
		for _, ev := range events {
			logger.Warn("Unmatched gateway event awaiting manual reconciliation",
				"event_id", ev.EventID,
				"event_type", ev.Type,
				"correlation_id", ev.CorrelationID,
				"received_on", ev.ReceivedOn)
		}
		logger.Info("Unmatched gateway event report", "count", len(events))
	})
}
