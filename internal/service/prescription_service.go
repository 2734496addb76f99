package service

import (
	"context"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/prescription"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PrescriptionService struct {
	repo     prescription.Repository
	auditSvc *AuditService
	log      *zap.Logger
	now      func() time.Time
}

func NewPrescriptionService(repo prescription.Repository, auditSvc *AuditService, log *zap.Logger) *PrescriptionService {
	return &PrescriptionService{repo: repo, auditSvc: auditSvc, log: log, now: time.Now}
}

// ListPrescriptions returns the caller's prescriptions, active ones first.
func (s *PrescriptionService) ListPrescriptions(ctx context.Context, caller *domain.Claims) ([]*prescription.View, error) {
	if err := requirePatient(caller); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, caller.IdentityID)
}

// RequestRefill consumes one refill of the caller's own prescription.
func (s *PrescriptionService) RequestRefill(ctx context.Context, caller *domain.Claims, id uuid.UUID) (*prescription.Prescription, error) {
	if err := requirePatient(caller); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.PatientID != caller.IdentityID {
		return nil, ErrForbidden
	}

	if err := p.Refill(s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.SaveRefill(ctx, p); err != nil {
		s.log.Error("failed to save refill", zap.String("prescription_id", id.String()), zap.Error(err))
		return nil, persistenceError("saving refill", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		IdentityID:   caller.IdentityID,
		Role:         caller.Role,
		Action:       domain.ActionUpdate,
		ResourceType: "prescription",
		ResourceID:   id.String(),
		Changes:      `{"action":"refill"}`,
	})

	return p, nil
}
