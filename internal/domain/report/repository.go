package report

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)

	// ListRecent returns the patient's newest reports first.
	ListRecent(ctx context.Context, patientID uuid.UUID, limit int) ([]*Report, error)
}
