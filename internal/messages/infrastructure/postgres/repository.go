package postgres

import (
	"context"
	"database/sql"
	"errors"

	messages "bustrack/internal/messages/domain"
)

// Repository is a Postgres repository for contact messages.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts a message.
func (r *Repository) Save(ctx context.Context, msg messages.Message) error {
	if r == nil || r.db == nil {
		return errors.New("message repo: nil db")
	}
	if msg.ID == "" {
		return errors.New("message repo: empty id")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO contact_messages (id, full_name, email, message, created_at)
VALUES ($1, $2, $3, $4, $5)`, msg.ID, msg.FullName, msg.Email, msg.Message, msg.CreatedAt)
	return err
}

// List returns every message, newest first.
func (r *Repository) List(ctx context.Context) ([]messages.Message, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("message repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, full_name, email, message, created_at
FROM contact_messages
ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []messages.Message
	for rows.Next() {
		var msg messages.Message
		if err := rows.Scan(&msg.ID, &msg.FullName, &msg.Email, &msg.Message, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.CreatedAt = msg.CreatedAt.UTC()
		out = append(out, msg)
	}
	return out, rows.Err()
}

// Get loads a message by id. It returns nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*messages.Message, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("message repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, full_name, email, message, created_at
FROM contact_messages
WHERE id = $1
LIMIT 1`, id)
	var msg messages.Message
	if err := row.Scan(&msg.ID, &msg.FullName, &msg.Email, &msg.Message, &msg.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	msg.CreatedAt = msg.CreatedAt.UTC()
	return &msg, nil
}

// Delete removes a message by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("message repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return messages.ErrNotFound
	}
	return nil
}
