// Package storage persists the user registry and the conversation log.
package storage

import (
	"context"
	"errors"

	"github.com/mercaline/mercabot/internal/models"
)

var (
	// ErrDuplicate is returned when an identification is already registered,
	// including identifications of deactivated users: they are never reused.
	ErrDuplicate = errors.New("identification already registered")
	// ErrNotFound is returned when no active user has the identification.
	ErrNotFound = errors.New("user not found")
)

// UserChanges holds a partial profile update. Nil fields are left untouched.
type UserChanges struct {
	FullName *string
	Phone    *string
	Email    *string
}

// Registry is the persistence boundary for users and conversation records.
type Registry interface {
	RegisterUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, identification string) (*models.User, error)
	UpdateUser(ctx context.Context, identification string, changes UserChanges) (*models.User, error)
	DeactivateUser(ctx context.Context, identification string) error
	ListUsers(ctx context.Context, activeOnly bool) ([]*models.User, error)
	CountUsers(ctx context.Context, activeOnly bool) (int, error)

	// LogConversation appends one exchanged message and updates keyword
	// frequencies. Callers treat failures as observability events only;
	// a logging error must never break the conversation turn.
	LogConversation(ctx context.Context, rec *models.ConversationRecord) error

	// GetStatistics aggregates activity over the last days. Keyword
	// frequencies are running all-time counters and are not windowed.
	GetStatistics(ctx context.Context, days int) (*models.Statistics, error)

	Close() error
}
