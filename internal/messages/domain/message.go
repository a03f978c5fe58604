package messages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is a contact form submission.
type Message struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository persists contact messages.
type Repository interface {
	Save(ctx context.Context, msg Message) error
	List(ctx context.Context) ([]Message, error)
	Get(ctx context.Context, id string) (*Message, error)
	Delete(ctx context.Context, id string) error
}

// NewMessage validates a submission and assigns identity and timestamp.
func NewMessage(fullName, email, body string, now time.Time) (Message, error) {
	msg := Message{
		FullName: strings.TrimSpace(fullName),
		Email:    strings.TrimSpace(email),
		Message:  strings.TrimSpace(body),
	}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	msg.ID = uuid.NewString()
	msg.CreatedAt = now.UTC()
	return msg, nil
}

// Validate checks that every field is present.
func (m Message) Validate() error {
	switch {
	case m.FullName == "" || m.Email == "" || m.Message == "":
		return fmt.Errorf("%w: all fields are required", ErrInvalidMessage)
	case !strings.Contains(m.Email, "@"):
		return fmt.Errorf("%w: email %q is not valid", ErrInvalidMessage, m.Email)
	}
	return nil
}
