package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/cache"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/profile"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/identity"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/pkg/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/service"

// IdentityDirectory is the part of the identity provider the synchronizer
// reads from and writes to.
type IdentityDirectory interface {
	GetIdentity(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, md domain.Metadata) error
}

type RoleAssignment struct {
	Role         domain.Role `json:"role"`
	RedirectPath string      `json:"redirect_path"`
}

// RoleSynchronizer keeps identity metadata, the profile row and the
// patient/doctor tables in agreement about an identity's role.
//
// The identity metadata write and the database writes are not atomic with
// each other. A failure between them leaves the two sides disagreeing until
// the next AssignRole or SyncProfileFromIdentity for that identity, both of
// which converge to the latest intent.
type RoleSynchronizer struct {
	identities IdentityDirectory
	profiles   profile.Repository
	roles      cache.RoleCache
	auditSvc   *AuditService
	metrics    *metrics.Collector
	tracer     trace.Tracer
	log        *zap.Logger
}

func NewRoleSynchronizer(
	identities IdentityDirectory,
	profiles profile.Repository,
	roles cache.RoleCache,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *RoleSynchronizer {
	return &RoleSynchronizer{
		identities: identities,
		profiles:   profiles,
		roles:      roles,
		auditSvc:   auditSvc,
		metrics:    m,
		tracer:     otel.Tracer(tracerName),
		log:        log,
	}
}

// AssignRole gives identityID exactly one role. The caller must be signed in
// as identityID itself.
func (s *RoleSynchronizer) AssignRole(ctx context.Context, caller *domain.Claims, identityID uuid.UUID, role domain.Role) (*RoleAssignment, error) {
	ctx, span := s.tracer.Start(ctx, "RoleSynchronizer.AssignRole",
		trace.WithAttributes(attribute.String("role", string(role))))
	defer span.End()

	ra, err := s.assignRole(ctx, caller, identityID, role)
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotAuthenticated):
		outcome = "unauthenticated"
	case errors.Is(err, domain.ErrInvalidRole):
		outcome = "invalid"
	default:
		outcome = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, "role assignment failed")
		s.log.Error("role assignment failed",
			zap.String("identity_id", identityID.String()),
			zap.String("role", string(role)),
			zap.Error(err),
		)
	}
	if s.metrics != nil {
		label := string(role)
		if !role.IsValid() {
			label = "unknown"
		}
		s.metrics.RoleAssignments.WithLabelValues(label, outcome).Inc()
	}
	return ra, err
}

func (s *RoleSynchronizer) assignRole(ctx context.Context, caller *domain.Claims, identityID uuid.UUID, role domain.Role) (*RoleAssignment, error) {
	if caller == nil || caller.IdentityID == uuid.Nil || caller.IdentityID != identityID {
		return nil, ErrNotAuthenticated
	}
	if !role.IsValid() {
		return nil, domain.ErrInvalidRole
	}

	ident, err := s.identities.GetIdentity(ctx, identityID)
	if err != nil {
		if errors.Is(err, identity.ErrIdentityNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, persistenceError("reading identity", err)
	}
	previous := ident.Metadata.Role

	md := ident.Metadata
	md.Role = role
	if err := s.identities.UpdateMetadata(ctx, identityID, md); err != nil {
		return nil, persistenceError("updating identity metadata", err)
	}

	if err := s.syncRows(ctx, ident, role); err != nil {
		return nil, err
	}

	if err := s.roles.Set(ctx, identityID, role); err != nil {
		return nil, persistenceError("caching assigned role", err)
	}

	changes := fmt.Sprintf(`{"role":{"from":%q,"to":%q}}`, previous, role)
	s.auditSvc.LogAsync(ctx, AuditEntry{
		IdentityID:   identityID,
		Role:         role,
		Action:       domain.ActionUpdate,
		ResourceType: "role",
		ResourceID:   identityID.String(),
		Changes:      changes,
	})

	s.log.Info("role assigned",
		zap.String("identity_id", identityID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(role)),
	)

	return &RoleAssignment{Role: role, RedirectPath: role.DashboardPath()}, nil
}

// SyncProfileFromIdentity mirrors the identity into its profile and makes
// sure the matching role row exists. Identities without role metadata are
// treated as patients; nothing is written back to the identity provider.
func (s *RoleSynchronizer) SyncProfileFromIdentity(ctx context.Context, identityID uuid.UUID) (domain.Role, error) {
	ctx, span := s.tracer.Start(ctx, "RoleSynchronizer.SyncProfileFromIdentity")
	defer span.End()

	role, err := s.syncProfile(ctx, identityID)
	outcome := "success"
	if err != nil {
		outcome = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile sync failed")
		s.log.Error("profile sync failed",
			zap.String("identity_id", identityID.String()),
			zap.Error(err),
		)
	} else {
		span.SetAttributes(attribute.String("role", string(role)))
	}
	if s.metrics != nil {
		s.metrics.ProfileSyncsTotal.WithLabelValues(outcome).Inc()
	}
	return role, err
}

func (s *RoleSynchronizer) syncProfile(ctx context.Context, identityID uuid.UUID) (domain.Role, error) {
	ident, err := s.identities.GetIdentity(ctx, identityID)
	if err != nil {
		if errors.Is(err, identity.ErrIdentityNotFound) {
			return "", ErrNotAuthenticated
		}
		return "", persistenceError("reading identity", err)
	}

	role := ident.Metadata.RoleOr(domain.RolePatient)
	if err := s.syncRows(ctx, ident, role); err != nil {
		return "", err
	}

	if err := s.roles.Set(ctx, identityID, role); err != nil {
		// Routing falls back to the profile once the stale entry expires.
		s.log.Warn("caching synced role", zap.String("identity_id", identityID.String()), zap.Error(err))
	}
	return role, nil
}

// syncRows upserts the profile, inserts the role row if absent and deletes
// the other role's row, all in one transaction.
func (s *RoleSynchronizer) syncRows(ctx context.Context, ident *domain.Identity, role domain.Role) error {
	err := s.profiles.Transaction(ctx, func(tx profile.Repository) error {
		existing, err := tx.GetProfile(ctx, ident.ID)
		if err != nil && !errors.Is(err, profile.ErrProfileNotFound) {
			return persistenceError("reading profile", err)
		}

		p := &profile.Profile{
			ID:       ident.ID,
			Email:    ident.Email,
			FullName: ident.FullName,
			Role:     role,
		}
		if existing != nil {
			if existing.Email != "" {
				p.Email = existing.Email
			}
			if existing.FullName != "" {
				p.FullName = existing.FullName
			}
		}
		if err := tx.UpsertProfile(ctx, p); err != nil {
			return persistenceError("upserting profile", err)
		}

		if role == domain.RoleDoctor {
			if err := tx.EnsureDoctor(ctx, ident.ID); err != nil {
				return persistenceError("ensuring doctor record", err)
			}
			if err := tx.DeletePatient(ctx, ident.ID); err != nil {
				return persistenceError("deleting patient record", err)
			}
			return nil
		}

		if err := tx.EnsurePatient(ctx, ident.ID); err != nil {
			return persistenceError("ensuring patient record", err)
		}
		if err := tx.DeleteDoctor(ctx, ident.ID); err != nil {
			return persistenceError("deleting doctor record", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrPersistenceFailure) {
		return persistenceError("committing profile transaction", err)
	}
	return err
}
