package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/syncwatch-server/internal/core"
	"github.com/vovakirdan/syncwatch-server/internal/store"
)

var (
	// ErrInvalidUsername is returned when username doesn't meet constraints.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrAdminExists is returned when adding an account that already exists.
	ErrAdminExists = errors.New("admin already exists")
	// ErrUnknownAdmin is returned when approving an account that does not exist.
	ErrUnknownAdmin = errors.New("unknown admin")
)

// Service is the credential store behind admin login.
type Service struct {
	store     store.AdminStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(adminStore store.AdminStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     adminStore,
		jwtConfig: jwtConfig,
	}
}

// Exists reports whether the account is known and approved.
func (s *Service) Exists(ctx context.Context, username string) (bool, error) {
	admin, err := s.store.GetAdmin(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get admin: %w", err)
	}
	return admin.Approved, nil
}

// Query reports whether password matches the stored hash for username.
// Unknown accounts never match.
func (s *Service) Query(ctx context.Context, username, password string) (bool, error) {
	admin, err := s.store.GetAdmin(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get admin: %w", err)
	}
	return ComparePassword(admin.PasswordHash, password) == nil, nil
}

// CheckAdmin performs the lookup used by the hub during adminLogin.
// Unknown and unapproved accounts report the same result, and the bcrypt
// compare only runs for approved ones.
func (s *Service) CheckAdmin(ctx context.Context, username, password string) (core.AdminCheck, error) {
	approved, err := s.Exists(ctx, username)
	if err != nil || !approved {
		return core.AdminCheck{}, err
	}

	match, err := s.Query(ctx, username, password)
	if err != nil {
		return core.AdminCheck{}, err
	}
	return core.AdminCheck{Exists: true, Approved: true, PasswordMatch: match}, nil
}

// IssueAdminToken signs a bearer token for the admin REST API.
func (s *Service) IssueAdminToken(username string) (string, error) {
	token, err := GenerateToken(s.jwtConfig, username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// ValidateToken validates a bearer token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

// AddAdmin stores a new unapproved account with a hashed password.
func (s *Service) AddAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 32 {
		return ErrInvalidUsername
	}
	if len(password) < 6 {
		return ErrInvalidPassword
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := s.store.CreateAdmin(ctx, username, hash); err != nil {
		if errors.Is(err, store.ErrExists) {
			return ErrAdminExists
		}
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// Approve marks an account as allowed to log in.
func (s *Service) Approve(ctx context.Context, username string) error {
	if err := s.store.SetApproved(ctx, username, true); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUnknownAdmin
		}
		return fmt.Errorf("approve admin: %w", err)
	}
	return nil
}

// Admins lists every account with its approval state.
func (s *Service) Admins(ctx context.Context) ([]store.Admin, error) {
	admins, err := s.store.ListAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}
