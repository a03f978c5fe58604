package application

import (
	"context"

	telemetry "bustrack/internal/telemetry/domain"
)

// MultiNotifier dispatches readings to multiple notifiers in order.
type MultiNotifier struct {
	notifiers []telemetry.ReadingNotifier
}

// NewMultiNotifier constructs a MultiNotifier.
func NewMultiNotifier(notifiers ...telemetry.ReadingNotifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Notify forwards the reading to all notifiers.
func (m *MultiNotifier) Notify(ctx context.Context, reading telemetry.Reading) {
	if m == nil {
		return
	}
	for _, notifier := range m.notifiers {
		if notifier != nil {
			notifier.Notify(ctx, reading)
		}
	}
}
