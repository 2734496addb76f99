package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, q *ListAppointmentsQuery) (*PagedAppointments, error)

	// UpdateStatus persists the status and its cancellation/completion fields.
	UpdateStatus(ctx context.Context, a *Appointment) error

	// HasConflict checks whether a doctor already has an appointment that overlaps.
	HasConflict(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (bool, error)

	// Upcoming returns the next scheduled or confirmed appointments of a
	// patient or doctor, soonest first.
	Upcoming(ctx context.Context, participantID uuid.UUID, from time.Time, limit int) ([]*Appointment, error)
}
