package service

import (
	"context"
	"errors"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/profile"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/report"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/tip"
	"go.uber.org/zap"
)

const (
	dashboardReports      = 3
	dashboardAppointments = 5
	defaultPatientList    = 10
)

type PatientDashboard struct {
	Profile              *profile.Profile           `json:"profile"`
	Patient              *profile.PatientRecord     `json:"patient,omitempty"`
	DailyTip             *tip.DailyTip              `json:"daily_tip"`
	RecentReports        []*report.Report           `json:"recent_reports"`
	UpcomingAppointments []*appointment.Appointment `json:"upcoming_appointments"`
	UnreadNotifications  int64                      `json:"unread_notifications"`
}

type DoctorDashboard struct {
	Profile              *profile.Profile           `json:"profile"`
	Doctor               *profile.DoctorRecord      `json:"doctor,omitempty"`
	Patients             []*profile.PatientSummary  `json:"patients"`
	UpcomingAppointments []*appointment.Appointment `json:"upcoming_appointments"`
	UnreadNotifications  int64                      `json:"unread_notifications"`
}

type DashboardService struct {
	profiles      profile.Repository
	reports       report.Repository
	appointments  appointment.Repository
	notifications notification.Repository
	tips          *TipService
	log           *zap.Logger
	now           func() time.Time
}

func NewDashboardService(
	profiles profile.Repository,
	reports report.Repository,
	appointments appointment.Repository,
	notifications notification.Repository,
	tips *TipService,
	log *zap.Logger,
) *DashboardService {
	return &DashboardService{
		profiles:      profiles,
		reports:       reports,
		appointments:  appointments,
		notifications: notifications,
		tips:          tips,
		log:           log,
		now:           time.Now,
	}
}

func (s *DashboardService) Patient(ctx context.Context, caller *domain.Claims) (*PatientDashboard, error) {
	if err := requirePatient(caller); err != nil {
		return nil, err
	}
	id := caller.IdentityID

	p, err := s.profiles.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &PatientDashboard{Profile: p, DailyTip: s.tips.DailyTip(ctx)}

	d.Patient, err = s.profiles.GetPatient(ctx, id)
	if err != nil && !errors.Is(err, profile.ErrPatientNotFound) {
		return nil, err
	}
	if d.RecentReports, err = s.reports.ListRecent(ctx, id, dashboardReports); err != nil {
		return nil, err
	}
	if d.UpcomingAppointments, err = s.appointments.Upcoming(ctx, id, s.now(), dashboardAppointments); err != nil {
		return nil, err
	}
	d.UnreadNotifications = s.unread(ctx, caller)

	if d.RecentReports == nil {
		d.RecentReports = []*report.Report{}
	}
	if d.UpcomingAppointments == nil {
		d.UpcomingAppointments = []*appointment.Appointment{}
	}
	return d, nil
}

func (s *DashboardService) Doctor(ctx context.Context, caller *domain.Claims) (*DoctorDashboard, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}
	if caller.Role != domain.RoleDoctor {
		return nil, ErrForbidden
	}
	id := caller.IdentityID

	p, err := s.profiles.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &DoctorDashboard{Profile: p}

	d.Doctor, err = s.profiles.GetDoctor(ctx, id)
	if err != nil && !errors.Is(err, profile.ErrDoctorNotFound) {
		return nil, err
	}
	if d.Patients, err = s.profiles.ListPatients(ctx, defaultPatientList); err != nil {
		return nil, err
	}
	if d.UpcomingAppointments, err = s.appointments.Upcoming(ctx, id, s.now(), dashboardAppointments); err != nil {
		return nil, err
	}
	d.UnreadNotifications = s.unread(ctx, caller)

	if d.Patients == nil {
		d.Patients = []*profile.PatientSummary{}
	}
	if d.UpcomingAppointments == nil {
		d.UpcomingAppointments = []*appointment.Appointment{}
	}
	return d, nil
}

// Patients lists patients for a doctor's patient directory.
func (s *DashboardService) Patients(ctx context.Context, caller *domain.Claims, limit int) ([]*profile.PatientSummary, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}
	if caller.Role != domain.RoleDoctor {
		return nil, ErrForbidden
	}
	if limit <= 0 || limit > 100 {
		limit = defaultPatientList
	}
	return s.profiles.ListPatients(ctx, limit)
}

// unread is decoration on the dashboard; a failure shows zero.
func (s *DashboardService) unread(ctx context.Context, caller *domain.Claims) int64 {
	n, err := s.notifications.CountUnread(ctx, caller.IdentityID)
	if err != nil {
		s.log.Warn("counting unread notifications", zap.Error(err))
		return 0
	}
	return n
}
