package messages

import (
	"errors"
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("PKT", 5*3600))
	msg, err := NewMessage("  Ayesha Khan ", "ayesha@campus.edu", "Bus 12 was late", now)
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	if msg.ID == "" {
		t.Fatalf("expected generated id")
	}
	if msg.FullName != "Ayesha Khan" {
		t.Fatalf("expected trimmed name, got %q", msg.FullName)
	}
	if !msg.CreatedAt.Equal(now) || msg.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected utc created at, got %v", msg.CreatedAt)
	}
}

func TestNewMessage_Invalid(t *testing.T) {
	cases := map[string][3]string{
		"missing name":    {"", "a@campus.edu", "hi"},
		"missing email":   {"Ali", "", "hi"},
		"missing message": {"Ali", "a@campus.edu", "   "},
		"bad email":       {"Ali", "campus.edu", "hi"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewMessage(tc[0], tc[1], tc[2], time.Now())
			if !errors.Is(err, ErrInvalidMessage) {
				t.Fatalf("expected ErrInvalidMessage, got %v", err)
			}
		})
	}
}
