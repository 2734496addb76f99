package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/profile"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/settings"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FullProfile is a profile together with its role row and settings.
type FullProfile struct {
	Profile  *profile.Profile       `json:"profile"`
	Patient  *profile.PatientRecord `json:"patient,omitempty"`
	Doctor   *profile.DoctorRecord  `json:"doctor,omitempty"`
	Settings *settings.Settings     `json:"settings"`
}

type ProfileService struct {
	repo     profile.Repository
	settings settings.Repository
	auditSvc *AuditService
	log      *zap.Logger
	now      func() time.Time
}

func NewProfileService(repo profile.Repository, settingsRepo settings.Repository, auditSvc *AuditService, log *zap.Logger) *ProfileService {
	return &ProfileService{
		repo:     repo,
		settings: settingsRepo,
		auditSvc: auditSvc,
		log:      log,
		now:      time.Now,
	}
}

func (s *ProfileService) GetFullProfile(ctx context.Context, caller *domain.Claims) (*FullProfile, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}

	p, err := s.repo.GetProfile(ctx, caller.IdentityID)
	if err != nil {
		return nil, err
	}
	full := &FullProfile{Profile: p}

	switch p.Role {
	case domain.RolePatient:
		full.Patient, err = s.repo.GetPatient(ctx, p.ID)
	case domain.RoleDoctor:
		full.Doctor, err = s.repo.GetDoctor(ctx, p.ID)
	}
	if err != nil && !errors.Is(err, profile.ErrPatientNotFound) && !errors.Is(err, profile.ErrDoctorNotFound) {
		return nil, err
	}

	full.Settings, err = s.GetSettings(ctx, caller)
	if err != nil {
		return nil, err
	}
	return full, nil
}

// UpdatePatientProfile applies cmd to the caller's patient row and mirrors
// name and phone changes into the profile in the same transaction.
func (s *ProfileService) UpdatePatientProfile(ctx context.Context, caller *domain.Claims, cmd *profile.UpdatePatientCommand) (*profile.PatientRecord, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}
	if caller.Role != domain.RolePatient {
		return nil, ErrForbidden
	}
	if err := cmd.Validate(s.now()); err != nil {
		return nil, err
	}

	var updated *profile.PatientRecord
	err := s.repo.Transaction(ctx, func(tx profile.Repository) error {
		if err := tx.EnsurePatient(ctx, caller.IdentityID); err != nil {
			return persistenceError("ensuring patient record", err)
		}
		rec, err := tx.GetPatient(ctx, caller.IdentityID)
		if err != nil {
			return err
		}
		cmd.Apply(rec)
		if err := tx.SavePatient(ctx, rec); err != nil {
			return persistenceError("saving patient record", err)
		}
		if err := syncNameFields(ctx, tx, caller.IdentityID, cmd.NameFields); err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		s.log.Error("failed to update patient profile",
			zap.String("identity_id", caller.IdentityID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		IdentityID:   caller.IdentityID,
		Role:         caller.Role,
		Action:       domain.ActionUpdate,
		ResourceType: "patient",
		ResourceID:   caller.IdentityID.String(),
	})

	return updated, nil
}

func (s *ProfileService) UpdateDoctorProfile(ctx context.Context, caller *domain.Claims, cmd *profile.UpdateDoctorCommand) (*profile.DoctorRecord, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}
	if caller.Role != domain.RoleDoctor {
		return nil, ErrForbidden
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var updated *profile.DoctorRecord
	err := s.repo.Transaction(ctx, func(tx profile.Repository) error {
		if err := tx.EnsureDoctor(ctx, caller.IdentityID); err != nil {
			return persistenceError("ensuring doctor record", err)
		}
		rec, err := tx.GetDoctor(ctx, caller.IdentityID)
		if err != nil {
			return err
		}
		cmd.Apply(rec)
		if err := tx.SaveDoctor(ctx, rec); err != nil {
			return persistenceError("saving doctor record", err)
		}
		if err := syncNameFields(ctx, tx, caller.IdentityID, cmd.NameFields); err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		s.log.Error("failed to update doctor profile",
			zap.String("identity_id", caller.IdentityID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		IdentityID:   caller.IdentityID,
		Role:         caller.Role,
		Action:       domain.ActionUpdate,
		ResourceType: "doctor",
		ResourceID:   caller.IdentityID.String(),
	})

	return updated, nil
}

func syncNameFields(ctx context.Context, tx profile.Repository, id uuid.UUID, n profile.NameFields) error {
	if n.IsEmpty() {
		return nil
	}
	p, err := tx.GetProfile(ctx, id)
	if err != nil {
		return err
	}
	n.Apply(p)
	if err := tx.SaveProfile(ctx, p); err != nil {
		return persistenceError("saving profile", err)
	}
	return nil
}

// GetSettings returns the caller's settings, or the defaults if none were saved.
func (s *ProfileService) GetSettings(ctx context.Context, caller *domain.Claims) (*settings.Settings, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}
	return settingsOrDefault(ctx, s.settings, caller.IdentityID)
}

func settingsOrDefault(ctx context.Context, repo settings.Repository, id uuid.UUID) (*settings.Settings, error) {
	st, err := repo.Get(ctx, id)
	if errors.Is(err, settings.ErrSettingsNotFound) {
		return settings.Default(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return st, nil
}

func (s *ProfileService) UpdateSettings(ctx context.Context, caller *domain.Claims, cmd *settings.UpdateCommand) (*settings.Settings, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	st, err := s.GetSettings(ctx, caller)
	if err != nil {
		return nil, err
	}
	cmd.Apply(st)
	if err := s.settings.Upsert(ctx, st); err != nil {
		return nil, persistenceError("saving settings", err)
	}
	return st, nil
}
