package service

import (
	"context"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/profile"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type appointmentFixture struct {
	patient  *domain.Claims
	doctor   *domain.Claims
	repo     *memAppointments
	notifier *recordingNotifier
	svc      *AppointmentService
	now      time.Time
}

func newAppointmentFixture(t *testing.T) *appointmentFixture {
	t.Helper()
	ctx := context.Background()
	f := &appointmentFixture{
		patient:  &domain.Claims{IdentityID: uuid.New(), Role: domain.RolePatient},
		doctor:   &domain.Claims{IdentityID: uuid.New(), Role: domain.RoleDoctor},
		repo:     newMemAppointments(),
		notifier: &recordingNotifier{},
		now:      time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
	}
	profiles := newMemProfiles()
	require.NoError(t, profiles.EnsurePatient(ctx, f.patient.IdentityID))
	require.NoError(t, profiles.EnsureDoctor(ctx, f.doctor.IdentityID))

	auditSvc, _, _ := newTestAudit(t)
	f.svc = NewAppointmentService(f.repo, profiles, f.notifier, auditSvc, newTestMetrics(), zap.NewNop())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *appointmentFixture) command() *appointment.CreateAppointmentCommand {
	return &appointment.CreateAppointmentCommand{
		DoctorID:     f.doctor.IdentityID,
		ScheduledAt:  f.now.Add(24 * time.Hour),
		DurationMins: 30,
		Type:         appointment.TypeConsultation,
		Reason:       "Annual check",
	}
}

func TestScheduleAppointment_PatientBooksForSelf(t *testing.T) {
	f := newAppointmentFixture(t)
	cmd := f.command()
	cmd.PatientID = uuid.New() // ignored, the caller is the patient

	a, err := f.svc.ScheduleAppointment(context.Background(), f.patient, cmd)
	require.NoError(t, err)

	assert.Equal(t, f.patient.IdentityID, a.PatientID)
	assert.Equal(t, appointment.StatusScheduled, a.Status)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, f.doctor.IdentityID, f.notifier.sent[0].userID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.metrics.AppointmentsTotal.WithLabelValues("scheduled")))
}

func TestScheduleAppointment_Rejections(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()

	_, err := f.svc.ScheduleAppointment(ctx, nil, f.command())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = f.svc.ScheduleAppointment(ctx, &domain.Claims{IdentityID: uuid.New()}, f.command())
	assert.ErrorIs(t, err, ErrForbidden)

	past := f.command()
	past.ScheduledAt = f.now.Add(-time.Hour)
	_, err = f.svc.ScheduleAppointment(ctx, f.patient, past)
	assert.ErrorIs(t, err, appointment.ErrScheduledInPast)

	unknown := f.command()
	unknown.DoctorID = uuid.New()
	_, err = f.svc.ScheduleAppointment(ctx, f.patient, unknown)
	assert.ErrorIs(t, err, profile.ErrDoctorNotFound)

	f.repo.conflict = true
	_, err = f.svc.ScheduleAppointment(ctx, f.patient, f.command())
	assert.ErrorIs(t, err, appointment.ErrAppointmentConflict)

	assert.Empty(t, f.repo.items)
}

func TestAppointmentLifecycle(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()

	a, err := f.svc.ScheduleAppointment(ctx, f.patient, f.command())
	require.NoError(t, err)

	// Only the treating doctor advances the status.
	_, err = f.svc.ConfirmAppointment(ctx, f.patient, a.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	other := &domain.Claims{IdentityID: uuid.New(), Role: domain.RoleDoctor}
	_, err = f.svc.ConfirmAppointment(ctx, other, a.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	a, err = f.svc.ConfirmAppointment(ctx, f.doctor, a.ID)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusConfirmed, a.Status)

	a, err = f.svc.CompleteAppointment(ctx, f.doctor, a.ID)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCompleted, a.Status)
	require.NotNil(t, a.CompletedAt)

	_, err = f.svc.CancelAppointment(ctx, f.patient, a.ID, "too late")
	assert.ErrorIs(t, err, appointment.ErrInvalidStatusTransition)

	last := f.notifier.sent[len(f.notifier.sent)-1]
	assert.Equal(t, f.patient.IdentityID, last.userID)
	assert.Equal(t, notification.KindSuccess, last.kind)
	assert.Equal(t, "Appointment completed", last.title)
}

func TestCancelAppointment_EitherParticipant(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()

	a, err := f.svc.ScheduleAppointment(ctx, f.doctor, &appointment.CreateAppointmentCommand{
		PatientID:    f.patient.IdentityID,
		ScheduledAt:  f.now.Add(2 * time.Hour),
		DurationMins: 15,
		Type:         appointment.TypeVideoVisit,
	})
	require.NoError(t, err)
	assert.Equal(t, f.doctor.IdentityID, a.DoctorID)

	stranger := &domain.Claims{IdentityID: uuid.New(), Role: domain.RolePatient}
	_, err = f.svc.CancelAppointment(ctx, stranger, a.ID, "nope")
	assert.ErrorIs(t, err, ErrForbidden)

	a, err = f.svc.CancelAppointment(ctx, f.patient, a.ID, "feeling better")
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCancelled, a.Status)
	assert.Equal(t, "feeling better", a.CancellationReason)
	assert.Equal(t, &f.patient.IdentityID, a.CancelledBy)

	last := f.notifier.sent[len(f.notifier.sent)-1]
	assert.Equal(t, f.doctor.IdentityID, last.userID)
	assert.Equal(t, notification.KindAlert, last.kind)
}

func TestListAppointments_ScopedToCaller(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()

	_, err := f.svc.ScheduleAppointment(ctx, f.patient, f.command())
	require.NoError(t, err)
	f.repo.items[uuid.New()] = &appointment.Appointment{PatientID: uuid.New(), DoctorID: uuid.New()}

	someoneElse := uuid.New()
	page, err := f.svc.ListAppointments(ctx, f.patient, &appointment.ListAppointmentsQuery{PatientID: &someoneElse, PageSize: 1000})
	require.NoError(t, err)
	assert.Len(t, page.Appointments, 1)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 1, page.Page)

	page, err = f.svc.ListAppointments(ctx, f.doctor, &appointment.ListAppointmentsQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Appointments, 1)

	upcoming, err := f.svc.Upcoming(ctx, f.doctor, 0)
	require.NoError(t, err)
	assert.Len(t, upcoming, 1)
}
