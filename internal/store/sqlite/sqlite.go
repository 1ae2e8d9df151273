package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/syncwatch-server/internal/store"
)

// Schema is applied on every open; statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS admins (
	username      TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	approved      BOOLEAN NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, applySchema)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to seed data on an in-memory database.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func applySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateAdmin inserts an unapproved admin account.
func (s *SQLiteStore) CreateAdmin(ctx context.Context, username, passwordHash string) (*store.Admin, error) {
	query := `
		INSERT INTO admins (username, password_hash, approved)
		VALUES (?, ?, 0)
	`
	if _, err := s.db.ExecContext(ctx, query, username, passwordHash); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("insert admin %s: %w", username, store.ErrExists)
		}
		return nil, fmt.Errorf("insert admin: %w", err)
	}
	return s.GetAdmin(ctx, username)
}

// GetAdmin retrieves an admin account by username.
func (s *SQLiteStore) GetAdmin(ctx context.Context, username string) (*store.Admin, error) {
	query := `
		SELECT username, password_hash, approved, created_at
		FROM admins
		WHERE username = ?
	`
	var admin store.Admin
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&admin.Username,
		&admin.PasswordHash,
		&admin.Approved,
		&admin.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("admin %s: %w", username, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query admin: %w", err)
	}
	return &admin, nil
}

// SetApproved flips the approval flag of an existing account.
func (s *SQLiteStore) SetApproved(ctx context.Context, username string, approved bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE admins SET approved = ? WHERE username = ?`, approved, username)
	if err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("admin %s: %w", username, store.ErrNotFound)
	}
	return nil
}

// ListAdmins returns every account ordered by username.
func (s *SQLiteStore) ListAdmins(ctx context.Context) ([]store.Admin, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password_hash, approved, created_at
		FROM admins
		ORDER BY username
	`)
	if err != nil {
		return nil, fmt.Errorf("query admins: %w", err)
	}
	defer rows.Close()

	var admins []store.Admin
	for rows.Next() {
		var admin store.Admin
		if err := rows.Scan(&admin.Username, &admin.PasswordHash, &admin.Approved, &admin.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		admins = append(admins, admin)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admins: %w", err)
	}
	return admins, nil
}
