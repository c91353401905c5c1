package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/calculations-api/internal/apperr"
	"github.com/isdelr/calculations-api/internal/auth"
	"github.com/isdelr/calculations-api/internal/database"
	"github.com/isdelr/calculations-api/internal/models"
)

// ErrInvalidCredentials is returned by AuthenticateUser for an unknown
// email, a wrong password and an inactive account alike.
var ErrInvalidCredentials = apperr.New(apperr.CodeUnauthenticated, "incorrect email or password")

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	CreateUser(ctx context.Context, email, password string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (models.User, error)
}

// UserService provides persistence and credential checks for users.
type UserService struct {
	db     *database.DB
	hasher auth.PasswordHasher

	// Verified against for unknown emails.
	dummyOnce sync.Once
	dummyHash string
}

// NewUserService creates a new UserService.
func NewUserService(db *database.DB, hasher auth.PasswordHasher) *UserService {
	return &UserService{db: db, hasher: hasher}
}

const userColumns = "id, email, password_hash, is_active, created_at"

func scanUser(scanner interface{ Scan(...any) error }) (models.User, error) {
	var user models.User
	err := scanner.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.IsActive, &user.CreatedAt)
	user.CreatedAt = user.CreatedAt.UTC()
	return user, err
}

// NormalizeEmail trims and lower-cases an email and checks its shape.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperr.Validation("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Validation("email is not a valid address")
	}
	return email, nil
}

// CreateUser hashes password and stores a new active user. Uniqueness of
// the email is enforced by the users table.
func (s *UserService) CreateUser(ctx context.Context, email, password string) (models.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return models.User{}, err
	}
	if password == "" {
		return models.User{}, apperr.Validation("password is required")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return models.User{}, fmt.Errorf("generate user id: %w", err)
	}
	user := models.User{
		ID:           id.String(),
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err = s.db.ExecContext(ctx,
		s.db.Rebind("INSERT INTO users (id, email, password_hash, is_active, created_at) VALUES (?, ?, ?, ?, ?)"),
		user.ID, user.Email, user.PasswordHash, user.IsActive, user.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, apperr.ErrDuplicateIdentity
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.User{}, apperr.New(apperr.CodeNotFound, "user not found")
	}
	row := s.db.QueryRowContext(ctx, s.db.Rebind("SELECT "+userColumns+" FROM users WHERE id = ?"), id)
	return userOrNotFound(scanUser(row))
}

// GetUserByEmail retrieves a single user by their email, including the
// password hash.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := s.db.QueryRowContext(ctx, s.db.Rebind("SELECT "+userColumns+" FROM users WHERE email = ?"), email)
	return userOrNotFound(scanUser(row))
}

func userOrNotFound(user models.User, err error) (models.User, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperr.New(apperr.CodeNotFound, "user not found")
		}
		return models.User{}, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

// AuthenticateUser verifies a user's credentials.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.hasher.Verify(password, s.placeholderHash())
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) || !user.IsActive {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(uuid.NewString())
	})
	return s.dummyHash
}
