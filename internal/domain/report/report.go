package report

import (
	"time"

	"github.com/google/uuid"
)

type ReportType string

const (
	TypeLab          ReportType = "lab"
	TypeDiagnosis    ReportType = "diagnosis"
	TypeImaging      ReportType = "imaging"
	TypeAIAnalysis   ReportType = "ai_analysis"
	TypeAIGenerated  ReportType = "ai_report"
	TypeVisitSummary ReportType = "visit_summary"
)

func (t ReportType) IsValid() bool {
	switch t {
	case TypeLab, TypeDiagnosis, TypeImaging, TypeAIAnalysis, TypeAIGenerated, TypeVisitSummary:
		return true
	}
	return false
}

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Reports are append-only: created once, never edited.
type Report struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	PatientID uuid.UUID  `gorm:"column:patient_id;type:uuid;not null;index" json:"patient_id"`
	DoctorID  *uuid.UUID `gorm:"column:doctor_id;type:uuid;index" json:"doctor_id"`

	Type     ReportType `gorm:"column:type;type:varchar(30);not null;index" json:"type"`
	Severity Severity   `gorm:"column:severity;type:varchar(20);not null" json:"severity"`
	Title    string     `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Body     string     `gorm:"column:body;type:text" json:"body"` // PHI

	Details map[string]string `gorm:"column:details;type:jsonb;serializer:json" json:"details"`
	FileURL string            `gorm:"column:file_url;type:text" json:"file_url"`
}

func (Report) TableName() string {
	return "public.reports"
}
