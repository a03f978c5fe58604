package audit

import (
	"context"
	"log"
)

// LogSink writes audit entries to the process log. It is used when the
// server runs without a database.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink constructs a log-backed audit logger.
func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{logger: logger}
}

// Log prints the entry.
func (s *LogSink) Log(_ context.Context, entry Entry) error {
	entry = entry.complete()
	s.logger.Printf("audit: %s %s/%s by %s (%s) from %s ua=%q",
		entry.Action, entry.ResourceType, entry.ResourceID, entry.Actor, entry.Role, entry.IP, entry.UserAgent)
	return nil
}
