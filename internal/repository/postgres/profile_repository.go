package postgres

import (
	"context"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/profile"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	db *gorm.DB
}

var _ profile.Repository = (*ProfileRepository)(nil)

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	var p profile.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, profile.ErrProfileNotFound)
	}
	return &p, nil
}

func (r *ProfileRepository) UpsertProfile(ctx context.Context, p *profile.Profile) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "full_name", "role", "updated_at"}),
		}).
		Create(p).Error
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) SaveProfile(ctx context.Context, p *profile.Profile) error {
	return affected(r.db.WithContext(ctx).
		Model(p).
		Select("email", "full_name", "first_name", "last_name", "phone", "avatar_url", "role").
		Updates(p), "saving profile", profile.ErrProfileNotFound)
}

func (r *ProfileRepository) GetPatient(ctx context.Context, id uuid.UUID) (*profile.PatientRecord, error) {
	var rec profile.PatientRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err, profile.ErrPatientNotFound)
	}
	return &rec, nil
}

func (r *ProfileRepository) GetDoctor(ctx context.Context, id uuid.UUID) (*profile.DoctorRecord, error) {
	var rec profile.DoctorRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err, profile.ErrDoctorNotFound)
	}
	return &rec, nil
}

func (r *ProfileRepository) EnsurePatient(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&profile.PatientRecord{ID: id}).Error
	if err != nil {
		return fmt.Errorf("inserting patient record: %w", err)
	}
	return nil
}

func (r *ProfileRepository) EnsureDoctor(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&profile.DoctorRecord{ID: id}).Error
	if err != nil {
		return fmt.Errorf("inserting doctor record: %w", err)
	}
	return nil
}

func (r *ProfileRepository) DeletePatient(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&profile.PatientRecord{}).Error; err != nil {
		return fmt.Errorf("deleting patient record: %w", err)
	}
	return nil
}

func (r *ProfileRepository) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&profile.DoctorRecord{}).Error; err != nil {
		return fmt.Errorf("deleting doctor record: %w", err)
	}
	return nil
}

func (r *ProfileRepository) SavePatient(ctx context.Context, rec *profile.PatientRecord) error {
	return affected(r.db.WithContext(ctx).
		Model(rec).
		Select("*").
		Omit("id", "created_at").
		Updates(rec), "saving patient record", profile.ErrPatientNotFound)
}

func (r *ProfileRepository) SaveDoctor(ctx context.Context, rec *profile.DoctorRecord) error {
	return affected(r.db.WithContext(ctx).
		Model(rec).
		Select("*").
		Omit("id", "created_at").
		Updates(rec), "saving doctor record", profile.ErrDoctorNotFound)
}

func (r *ProfileRepository) ListPatients(ctx context.Context, limit int) ([]*profile.PatientSummary, error) {
	var out []*profile.PatientSummary
	err := r.db.WithContext(ctx).
		Table("public.profiles AS pr").
		Select(`pr.id, pr.full_name, pr.email, pa.date_of_birth,
			COALESCE(pa.blood_type, '') AS blood_type,
			COALESCE(pa.conditions, '[]'::jsonb) AS conditions`).
		Joins("LEFT JOIN public.patients AS pa ON pa.id = pr.id").
		Where("pr.role = ?", domain.RolePatient).
		Order("pr.full_name ASC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}
	return out, nil
}

func (r *ProfileRepository) Transaction(ctx context.Context, fn func(profile.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ProfileRepository{db: tx})
	})
}
