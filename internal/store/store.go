package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrExists is returned when inserting a record whose key is already taken.
var ErrExists = errors.New("already exists")

// Admin represents an operator account allowed to log into the admin feed.
type Admin struct {
	Username     string
	PasswordHash string
	Approved     bool
	CreatedAt    time.Time
}

// AdminStore defines operations for admin account persistence.
type AdminStore interface {
	// CreateAdmin inserts a new, unapproved account.
	CreateAdmin(ctx context.Context, username, passwordHash string) (*Admin, error)
	// GetAdmin returns ErrNotFound for unknown usernames.
	GetAdmin(ctx context.Context, username string) (*Admin, error)
	SetApproved(ctx context.Context, username string, approved bool) error
	ListAdmins(ctx context.Context) ([]Admin, error)
}

// Store combines all storage interfaces.
type Store interface {
	AdminStore
	Close() error
}
