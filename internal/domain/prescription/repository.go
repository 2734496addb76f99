package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)

	// ListByPatient orders active prescriptions first, then by end date, latest first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*View, error)

	// SaveRefill persists refill count and status.
	SaveRefill(ctx context.Context, p *Prescription) error
}
