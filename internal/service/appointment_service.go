package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/profile"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier tells the other participant about appointment changes.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind notification.Kind, title, message string)
}

type AppointmentService struct {
	repo     appointment.Repository
	profiles profile.Repository
	notifier Notifier
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
	now      func() time.Time
}

func NewAppointmentService(
	repo appointment.Repository,
	profiles profile.Repository,
	notifier Notifier,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		repo:     repo,
		profiles: profiles,
		notifier: notifier,
		auditSvc: auditSvc,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// ScheduleAppointment books a slot. Patients book for themselves, doctors
// book into their own calendar.
func (s *AppointmentService) ScheduleAppointment(ctx context.Context, caller *domain.Claims, cmd *appointment.CreateAppointmentCommand) (*appointment.Appointment, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}
	switch caller.Role {
	case domain.RolePatient:
		cmd.PatientID = caller.IdentityID
	case domain.RoleDoctor:
		cmd.DoctorID = caller.IdentityID
	default:
		return nil, ErrForbidden
	}

	// -------- Input Validation -----------
	if err := cmd.Validate(s.now()); err != nil {
		return nil, err
	}
	if _, err := s.profiles.GetDoctor(ctx, cmd.DoctorID); err != nil {
		return nil, fmt.Errorf("verifying doctor: %w", err)
	}
	if _, err := s.profiles.GetPatient(ctx, cmd.PatientID); err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}

	endsAt := cmd.ScheduledAt.Add(time.Duration(cmd.DurationMins) * time.Minute)
	conflict, err := s.repo.HasConflict(ctx, cmd.DoctorID, cmd.ScheduledAt, endsAt)
	if err != nil {
		return nil, fmt.Errorf("checking conflicts: %w", err)
	}
	if conflict {
		return nil, appointment.ErrAppointmentConflict
	}

	a := &appointment.Appointment{
		PatientID:    cmd.PatientID,
		DoctorID:     cmd.DoctorID,
		ScheduledAt:  cmd.ScheduledAt,
		DurationMins: cmd.DurationMins,
		Type:         cmd.Type,
		Status:       appointment.StatusScheduled,
		Reason:       cmd.Reason,
		Location:     cmd.Location,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, persistenceError("creating appointment", err)
	}

	s.countStatus(a.Status)
	s.notifyOther(ctx, caller, a, notification.KindInfo, "New appointment")
	s.auditSvc.LogAsync(ctx, AuditEntry{
		IdentityID:   caller.IdentityID,
		Role:         caller.Role,
		Action:       domain.ActionCreate,
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
	})

	return a, nil
}

func (s *AppointmentService) GetAppointment(ctx context.Context, caller *domain.Claims, id uuid.UUID) (*appointment.Appointment, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.IsParticipant(caller.IdentityID) {
		return nil, ErrForbidden
	}
	return a, nil
}

// CancelAppointment may be called by either participant.
func (s *AppointmentService) CancelAppointment(ctx context.Context, caller *domain.Claims, id uuid.UUID, reason string) (*appointment.Appointment, error) {
	a, err := s.GetAppointment(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := a.Cancel(reason, caller.IdentityID, s.now()); err != nil {
		return nil, err
	}
	return s.saveTransition(ctx, caller, a, fmt.Sprintf(`{"status":"cancelled","reason":%q}`, reason))
}

func (s *AppointmentService) ConfirmAppointment(ctx context.Context, caller *domain.Claims, id uuid.UUID) (*appointment.Appointment, error) {
	a, err := s.doctorsAppointment(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := a.Confirm(); err != nil {
		return nil, err
	}
	return s.saveTransition(ctx, caller, a, `{"status":"confirmed"}`)
}

func (s *AppointmentService) CompleteAppointment(ctx context.Context, caller *domain.Claims, id uuid.UUID) (*appointment.Appointment, error) {
	a, err := s.doctorsAppointment(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := a.Complete(s.now()); err != nil {
		return nil, err
	}
	return s.saveTransition(ctx, caller, a, `{"status":"completed"}`)
}

func (s *AppointmentService) MarkNoShow(ctx context.Context, caller *domain.Claims, id uuid.UUID) (*appointment.Appointment, error) {
	a, err := s.doctorsAppointment(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := a.MarkNoShow(); err != nil {
		return nil, err
	}
	return s.saveTransition(ctx, caller, a, `{"status":"no_show"}`)
}

// doctorsAppointment loads an appointment only the treating doctor may advance.
func (s *AppointmentService) doctorsAppointment(ctx context.Context, caller *domain.Claims, id uuid.UUID) (*appointment.Appointment, error) {
	a, err := s.GetAppointment(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleDoctor || a.DoctorID != caller.IdentityID {
		return nil, ErrForbidden
	}
	return a, nil
}

func (s *AppointmentService) saveTransition(ctx context.Context, caller *domain.Claims, a *appointment.Appointment, changes string) (*appointment.Appointment, error) {
	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, persistenceError("updating appointment status", err)
	}

	s.countStatus(a.Status)
	s.notifyOther(ctx, caller, a, statusKind(a.Status), "Appointment "+statusLabel(a.Status))
	s.auditSvc.LogAsync(ctx, AuditEntry{
		IdentityID:   caller.IdentityID,
		Role:         caller.Role,
		Action:       domain.ActionUpdate,
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		Changes:      changes,
	})
	return a, nil
}

// ListAppointments scopes q to the caller's side of the appointment.
func (s *AppointmentService) ListAppointments(ctx context.Context, caller *domain.Claims, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}
	id := caller.IdentityID
	switch caller.Role {
	case domain.RolePatient:
		q.PatientID, q.DoctorID = &id, nil
	case domain.RoleDoctor:
		q.DoctorID, q.PatientID = &id, nil
	default:
		return nil, ErrForbidden
	}

	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}

func (s *AppointmentService) Upcoming(ctx context.Context, caller *domain.Claims, limit int) ([]*appointment.Appointment, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	return s.repo.Upcoming(ctx, caller.IdentityID, s.now(), limit)
}

func (s *AppointmentService) countStatus(status appointment.AppointmentStatus) {
	if s.metrics != nil {
		s.metrics.AppointmentsTotal.WithLabelValues(string(status)).Inc()
	}
}

func (s *AppointmentService) notifyOther(ctx context.Context, caller *domain.Claims, a *appointment.Appointment, kind notification.Kind, title string) {
	if s.notifier == nil {
		return
	}
	other := a.PatientID
	if caller.IdentityID == a.PatientID {
		other = a.DoctorID
	}
	msg := fmt.Sprintf("%s on %s (%d min).", title, a.ScheduledAt.UTC().Format("Mon Jan 2 2006 15:04 MST"), a.DurationMins)
	s.notifier.Notify(ctx, other, kind, title, msg)
}

func statusKind(st appointment.AppointmentStatus) notification.Kind {
	switch st {
	case appointment.StatusCancelled, appointment.StatusNoShow:
		return notification.KindAlert
	case appointment.StatusConfirmed, appointment.StatusCompleted:
		return notification.KindSuccess
	}
	return notification.KindInfo
}

func statusLabel(st appointment.AppointmentStatus) string {
	if st == appointment.StatusNoShow {
		return "marked as no-show"
	}
	return string(st)
}
