package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidRole = errors.New("role must be either patient or doctor")

// Role is the single portal role an identity holds. The zero value means
// no role has been assigned yet.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

func (r Role) IsValid() bool {
	switch r {
	case RolePatient, RoleDoctor:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// DashboardPath returns the landing page for the role.
func (r Role) DashboardPath() string {
	if r == RoleDoctor {
		return "/doctor/dashboard"
	}
	return "/patient/dashboard"
}

func (r Role) Other() Role {
	if r == RoleDoctor {
		return RolePatient
	}
	return RoleDoctor
}

// Metadata is the provider-side attribute bag of an identity.
type Metadata struct {
	Role Role `json:"role,omitempty"`
}

// RoleOr returns the metadata role, or def when none is set.
func (m Metadata) RoleOr(def Role) Role {
	if m.Role.IsValid() {
		return m.Role
	}
	return def
}

// Identity is an authenticated account as the identity provider sees it.
type Identity struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	EmailVerified bool      `json:"email_verified"`
	Metadata      Metadata  `json:"metadata"`
	CreatedAt     time.Time `json:"created_at"`
}

type AuditAction string

const (
	ActionCreate AuditAction = "create"
	ActionRead   AuditAction = "read"
	ActionUpdate AuditAction = "update"
	ActionDelete AuditAction = "delete"
	ActionLogin  AuditAction = "login"
	ActionLogout AuditAction = "logout"
)

type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OccurredAt time.Time `gorm:"autoCreateTime;index" json:"occurred_at"`

	// Who
	IdentityID uuid.UUID `gorm:"column:identity_id;type:uuid;not null;index" json:"identity_id"`
	Role       Role      `gorm:"column:role;type:varchar(20)" json:"role"`
	IPAddress  string    `gorm:"column:ip_address;type:varchar(45)" json:"ip_address"` // Supports IPv6

	// What
	Action       AuditAction `gorm:"column:action;type:varchar(20);not null;index" json:"action"`
	ResourceType string      `gorm:"column:resource_type;type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   string      `gorm:"column:resource_id;type:varchar(50);index" json:"resource_id"`

	RequestID string `gorm:"column:request_id;type:varchar(50);index" json:"request_id"`

	Changes string `gorm:"column:changes;type:jsonb" json:"changes"`
}

func (AuditLog) TableName() string {
	return "audit.logs"
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"` // Always "Bearer"
}

// Claims is what a validated session token asserts. Role is a snapshot of
// the identity metadata at issue time and may be stale.
type Claims struct {
	IdentityID uuid.UUID `json:"sub"`
	SessionID  string    `json:"sid"`
	Email      string    `json:"email"`
	Role       Role      `json:"role,omitempty"`
}
