package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrForbidden          = errors.New("forbidden: insufficient permissions")
	ErrPersistenceFailure = errors.New("persistence failure")
	ErrAIDisabled         = errors.New("ai features are disabled in your settings")
)

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// persistenceError keeps both ErrPersistenceFailure and the cause matchable.
func persistenceError(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistenceFailure, step, err)
}

type AuditEntry struct {
	IdentityID   uuid.UUID
	Role         domain.Role
	Action       domain.AuditAction
	ResourceType string
	ResourceID   string
	IPAddress    string
	RequestID    string
	Changes      string
}
