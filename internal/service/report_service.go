package service

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/report"
	"github.com/google/uuid"
)

type ReportService struct {
	repo     report.Repository
	auditSvc *AuditService
}

func NewReportService(repo report.Repository, auditSvc *AuditService) *ReportService {
	return &ReportService{repo: repo, auditSvc: auditSvc}
}

func (s *ReportService) ListReports(ctx context.Context, caller *domain.Claims, limit int) ([]*report.Report, error) {
	if err := requirePatient(caller); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListRecent(ctx, caller.IdentityID, limit)
}

// GetReport is readable by the patient it is about and by its author.
func (s *ReportService) GetReport(ctx context.Context, caller *domain.Claims, id uuid.UUID) (*report.Report, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.PatientID != caller.IdentityID && (r.DoctorID == nil || *r.DoctorID != caller.IdentityID) {
		return nil, ErrForbidden
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		IdentityID:   caller.IdentityID,
		Role:         caller.Role,
		Action:       domain.ActionRead,
		ResourceType: "report",
		ResourceID:   id.String(),
	})
	return r, nil
}
