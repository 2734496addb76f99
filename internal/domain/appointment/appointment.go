package appointment

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentType string

const (
	TypeConsultation   AppointmentType = "consultation"
	TypeFollowUp       AppointmentType = "follow_up"
	TypeRoutineCheckup AppointmentType = "routine_checkup"
	TypeVideoVisit     AppointmentType = "video_visit"
)

func (t AppointmentType) IsValid() bool {
	switch t {
	case TypeConsultation, TypeFollowUp, TypeRoutineCheckup, TypeVideoVisit:
		return true
	}
	return false
}

// Status transitions:
//
//	scheduled → confirmed → completed
//	scheduled → cancelled
//	confirmed → cancelled
//	confirmed → no_show
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled: {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusNoShow, StatusCancelled},
}

type Appointment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index" json:"patient_id"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index" json:"doctor_id"`

	ScheduledAt  time.Time         `gorm:"column:scheduled_at;not null;index" json:"scheduled_at"`
	DurationMins int               `gorm:"column:duration_mins;not null" json:"duration_mins"`
	Type         AppointmentType   `gorm:"column:type;type:varchar(30);not null" json:"type"`
	Status       AppointmentStatus `gorm:"column:status;type:varchar(20);not null;index" json:"status"`

	Reason   string `gorm:"column:reason;type:text" json:"reason"`
	Notes    string `gorm:"column:notes;type:text" json:"notes"`
	Location string `gorm:"column:location;type:varchar(200)" json:"location"`

	CancelledAt        *time.Time `gorm:"column:cancelled_at" json:"cancelled_at"`
	CancellationReason string     `gorm:"column:cancellation_reason;type:text" json:"cancellation_reason"`
	CancelledBy        *uuid.UUID `gorm:"column:cancelled_by;type:uuid" json:"cancelled_by"`

	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at"`
}

func (Appointment) TableName() string {
	return "public.appointments"
}

func (a *Appointment) EndsAt() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMins) * time.Minute)
}

func (a *Appointment) CanTransitionTo(next AppointmentStatus) bool {
	for _, s := range transitions[a.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// IsParticipant reports whether id is the patient or the doctor of a.
func (a *Appointment) IsParticipant(id uuid.UUID) bool {
	return a.PatientID == id || a.DoctorID == id
}

func (a *Appointment) Confirm() error {
	if !a.CanTransitionTo(StatusConfirmed) {
		return ErrInvalidStatusTransition
	}
	a.Status = StatusConfirmed
	return nil
}

func (a *Appointment) Cancel(reason string, cancelledBy uuid.UUID, now time.Time) error {
	if !a.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStatusTransition
	}
	a.Status = StatusCancelled
	a.CancelledAt = &now
	a.CancellationReason = reason
	a.CancelledBy = &cancelledBy
	return nil
}

func (a *Appointment) Complete(now time.Time) error {
	if !a.CanTransitionTo(StatusCompleted) {
		return ErrInvalidStatusTransition
	}
	a.Status = StatusCompleted
	a.CompletedAt = &now
	return nil
}

func (a *Appointment) MarkNoShow() error {
	if !a.CanTransitionTo(StatusNoShow) {
		return ErrInvalidStatusTransition
	}
	a.Status = StatusNoShow
	return nil
}

type CreateAppointmentCommand struct {
	PatientID    uuid.UUID
	DoctorID     uuid.UUID
	ScheduledAt  time.Time
	DurationMins int
	Type         AppointmentType
	Reason       string
	Location     string
}

func (c *CreateAppointmentCommand) Validate(now time.Time) error {
	if !c.Type.IsValid() {
		return ErrInvalidAppointmentType
	}
	if c.DurationMins < 5 || c.DurationMins > 480 {
		return ErrInvalidDuration
	}
	if !c.ScheduledAt.After(now) {
		return ErrScheduledInPast
	}
	return nil
}

type ListAppointmentsQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *AppointmentStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

type PagedAppointments struct {
	Appointments []*Appointment
	TotalCount   int64
	Page         int
	PageSize     int
	TotalPages   int
}
