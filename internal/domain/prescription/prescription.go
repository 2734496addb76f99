package prescription

import (
	"time"

	"github.com/google/uuid"
)

type PrescriptionStatus string

const (
	StatusActive    PrescriptionStatus = "active"
	StatusCompleted PrescriptionStatus = "completed"
	StatusCancelled PrescriptionStatus = "cancelled"
)

type Prescription struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index" json:"patient_id"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index" json:"doctor_id"`

	MedicationName string `gorm:"column:medication_name;type:varchar(255);not null" json:"medication_name"`
	Dosage         string `gorm:"column:dosage;type:varchar(50);not null" json:"dosage"`     // e.g. "500mg"
	Frequency      string `gorm:"column:frequency;type:varchar(100);not null" json:"frequency"` // e.g. "twice daily"
	Instructions   string `gorm:"column:instructions;type:text" json:"instructions"`

	RefillsAllowed int `gorm:"column:refills_allowed" json:"refills_allowed"`
	RefillsUsed    int `gorm:"column:refills_used" json:"refills_used"`

	StartDate time.Time          `gorm:"column:start_date;type:date;not null" json:"start_date"`
	EndDate   *time.Time         `gorm:"column:end_date;type:date" json:"end_date"`
	Status    PrescriptionStatus `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
}

func (Prescription) TableName() string {
	return "public.prescriptions"
}

func (p *Prescription) IsRefillable(now time.Time) bool {
	return p.Status == StatusActive &&
		p.RefillsUsed < p.RefillsAllowed &&
		(p.EndDate == nil || now.Before(*p.EndDate))
}

// Refill consumes one refill. The last refill completes the prescription.
func (p *Prescription) Refill(now time.Time) error {
	if !p.IsRefillable(now) {
		return ErrNotRefillable
	}
	p.RefillsUsed++
	if p.RefillsUsed >= p.RefillsAllowed {
		p.Status = StatusCompleted
	}
	return nil
}

// View is a prescription joined with the prescribing doctor.
type View struct {
	Prescription         `gorm:"embedded"`
	DoctorName           string `gorm:"column:doctor_name" json:"doctor_name"`
	DoctorSpecialization string `gorm:"column:doctor_specialization" json:"doctor_specialization"`
}
