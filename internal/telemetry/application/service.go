package application

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	telemetry "bustrack/internal/telemetry/domain"
)

// Service accepts device reports, keeps the latest reading and pushes every
// accepted reading to the configured notifier.
type Service struct {
	store    telemetry.LatestStore
	notifier telemetry.ReadingNotifier
	logger   *log.Logger

	// mu serializes store writes with their broadcast so streaming clients
	// never receive an older reading after a newer one was stored.
	mu sync.Mutex
}

// ServiceOption customizes the telemetry service.
type ServiceOption func(*Service)

// WithNotifier assigns a notifier.
func WithNotifier(notifier telemetry.ReadingNotifier) ServiceOption {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a telemetry service.
func NewService(store telemetry.LatestStore, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("telemetry service: nil store")
	}
	s := &Service{store: store, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Ingest validates a JSON device report, stores it as the latest reading and
// notifies streaming clients. Invalid reports leave the store untouched.
func (s *Service) Ingest(ctx context.Context, body []byte) (telemetry.Reading, error) {
	reading, err := telemetry.DecodeReading(body)
	if err != nil {
		return telemetry.Reading{}, err
	}
	s.accept(ctx, reading)
	return reading, nil
}

// IngestRaw is Ingest for an already decoded report.
func (s *Service) IngestRaw(ctx context.Context, raw map[string]any) (telemetry.Reading, error) {
	reading, err := telemetry.Normalize(raw)
	if err != nil {
		return telemetry.Reading{}, err
	}
	s.accept(ctx, reading)
	return reading, nil
}

func (s *Service) accept(ctx context.Context, reading telemetry.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Put(reading)
	if s.notifier != nil {
		s.notifier.Notify(ctx, reading)
	}
}

// Latest returns the most recent reading or ErrNoDataYet.
func (s *Service) Latest(_ context.Context) (telemetry.Reading, error) {
	reading, ok := s.store.Get()
	if !ok {
		return telemetry.Reading{}, telemetry.ErrNoDataYet
	}
	return reading, nil
}

// Snapshot returns the latest reading serialized for a streaming welcome
// message, or false when nothing was stored yet.
func (s *Service) Snapshot() ([]byte, bool) {
	reading, ok := s.store.Get()
	if !ok {
		return nil, false
	}
	payload, err := json.Marshal(reading)
	if err != nil {
		s.logger.Printf("telemetry service: encode snapshot error: %v", err)
		return nil, false
	}
	return payload, true
}
