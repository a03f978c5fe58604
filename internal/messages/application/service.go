package application

import (
	"context"
	"errors"
	"log"
	"time"

	messages "bustrack/internal/messages/domain"
	"bustrack/internal/observability/metrics"
)

// Service handles contact message submission and administration.
type Service struct {
	repo   messages.Repository
	now    func() time.Time
	logger *log.Logger
}

// Option customizes the message service.
type Option func(*Service)

// WithClock overrides the submission clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a message service.
func NewService(repo messages.Repository, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("message service: nil repository")
	}
	s := &Service{repo: repo, now: time.Now, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submit validates and stores a new message.
func (s *Service) Submit(ctx context.Context, fullName, email, body string) (messages.Message, error) {
	msg, err := messages.NewMessage(fullName, email, body, s.now())
	if err != nil {
		metrics.IncMessageOperation("submit", metrics.ResultError)
		return messages.Message{}, err
	}
	if err := s.repo.Save(ctx, msg); err != nil {
		metrics.IncMessageOperation("submit", metrics.ResultError)
		s.logger.Printf("messages: save error: %v", err)
		return messages.Message{}, err
	}
	metrics.IncMessageOperation("submit", metrics.ResultSuccess)
	return msg, nil
}

// List returns all messages, newest first.
func (s *Service) List(ctx context.Context) ([]messages.Message, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		metrics.IncMessageOperation("list", metrics.ResultError)
		s.logger.Printf("messages: list error: %v", err)
		return nil, err
	}
	metrics.IncMessageOperation("list", metrics.ResultSuccess)
	if list == nil {
		list = []messages.Message{}
	}
	return list, nil
}

// Delete removes a message and returns what was deleted.
func (s *Service) Delete(ctx context.Context, id string) (messages.Message, error) {
	if id == "" {
		metrics.IncMessageOperation("delete", metrics.ResultError)
		return messages.Message{}, messages.ErrNotFound
	}
	msg, err := s.repo.Get(ctx, id)
	if err == nil && msg == nil {
		err = messages.ErrNotFound
	}
	if err == nil {
		err = s.repo.Delete(ctx, id)
	}
	if err != nil {
		metrics.IncMessageOperation("delete", metrics.ResultError)
		if !errors.Is(err, messages.ErrNotFound) {
			s.logger.Printf("messages: delete %s error: %v", id, err)
		}
		return messages.Message{}, err
	}
	metrics.IncMessageOperation("delete", metrics.ResultSuccess)
	return *msg, nil
}
