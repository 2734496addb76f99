package profile

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// GetProfile returns ErrProfileNotFound if the identity has no profile yet.
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)

	// UpsertProfile inserts p or updates email, full_name and role of the existing row.
	UpsertProfile(ctx context.Context, p *Profile) error

	// SaveProfile writes every column of an existing profile.
	SaveProfile(ctx context.Context, p *Profile) error

	GetPatient(ctx context.Context, id uuid.UUID) (*PatientRecord, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*DoctorRecord, error)

	// EnsurePatient inserts an empty patient row unless one exists. Existing
	// rows are left untouched.
	EnsurePatient(ctx context.Context, id uuid.UUID) error
	EnsureDoctor(ctx context.Context, id uuid.UUID) error

	// DeletePatient removes the patient row. A missing row is not an error.
	DeletePatient(ctx context.Context, id uuid.UUID) error
	DeleteDoctor(ctx context.Context, id uuid.UUID) error

	SavePatient(ctx context.Context, r *PatientRecord) error
	SaveDoctor(ctx context.Context, r *DoctorRecord) error

	// ListPatients returns profiles with role patient joined with their patient row.
	ListPatients(ctx context.Context, limit int) ([]*PatientSummary, error)

	// Transaction runs fn against a repository bound to one database
	// transaction. fn's error rolls everything back.
	Transaction(ctx context.Context, fn func(Repository) error) error
}
