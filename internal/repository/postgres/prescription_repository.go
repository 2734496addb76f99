package postgres

import (
	"context"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/prescription"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PrescriptionRepository struct {
	db *gorm.DB
}

var _ prescription.Repository = (*PrescriptionRepository)(nil)

func NewPrescriptionRepository(db *gorm.DB) *PrescriptionRepository {
	return &PrescriptionRepository{db: db}
}

func (r *PrescriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error) {
	var p prescription.Prescription
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, prescription.ErrPrescriptionNotFound)
	}
	return &p, nil
}

func (r *PrescriptionRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*prescription.View, error) {
	var out []*prescription.View
	err := r.db.WithContext(ctx).
		Table("public.prescriptions AS p").
		Select(`p.*,
			COALESCE(pr.full_name, '') AS doctor_name,
			COALESCE(d.specialization, '') AS doctor_specialization`).
		Joins("LEFT JOIN public.profiles AS pr ON pr.id = p.doctor_id").
		Joins("LEFT JOIN public.doctors AS d ON d.id = p.doctor_id").
		Where("p.patient_id = ?", patientID).
		Order("CASE WHEN p.status = 'active' THEN 0 ELSE 1 END, p.end_date DESC NULLS LAST").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing prescriptions: %w", err)
	}
	return out, nil
}

func (r *PrescriptionRepository) SaveRefill(ctx context.Context, p *prescription.Prescription) error {
	return affected(r.db.WithContext(ctx).
		Model(p).
		Select("refills_used", "status").
		Updates(p), "saving refill", prescription.ErrPrescriptionNotFound)
}
