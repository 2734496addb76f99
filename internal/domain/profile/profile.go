package profile

import (
	"regexp"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/google/uuid"
)

type BloodType string

const (
	BloodTypeAPos  BloodType = "A+"
	BloodTypeANeg  BloodType = "A-"
	BloodTypeBPos  BloodType = "B+"
	BloodTypeBNeg  BloodType = "B-"
	BloodTypeABPos BloodType = "AB+"
	BloodTypeABNeg BloodType = "AB-"
	BloodTypeOPos  BloodType = "O+"
	BloodTypeONeg  BloodType = "O-"
)

func (b BloodType) IsValid() bool {
	switch b {
	case BloodTypeAPos, BloodTypeANeg, BloodTypeBPos, BloodTypeBNeg,
		BloodTypeABPos, BloodTypeABNeg, BloodTypeOPos, BloodTypeONeg:
		return true
	}
	return false
}

// Profile is the portal's mirror of an identity. Its Role is what routing
// trusts once a role has been assigned.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"` // identity id
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Email     string      `gorm:"column:email;type:varchar(255);index" json:"email"`
	FullName  string      `gorm:"column:full_name;type:varchar(200)" json:"full_name"`
	FirstName string      `gorm:"column:first_name;type:varchar(100)" json:"first_name"`
	LastName  string      `gorm:"column:last_name;type:varchar(100)" json:"last_name"`
	Phone     string      `gorm:"column:phone;type:varchar(20)" json:"phone"`
	AvatarURL string      `gorm:"column:avatar_url;type:text" json:"avatar_url"`
	Role      domain.Role `gorm:"column:role;type:varchar(20);index" json:"role"`
}

func (Profile) TableName() string {
	return "public.profiles"
}

// DisplayName falls back from full name to first/last name to email.
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	if n := strings.TrimSpace(p.FirstName + " " + p.LastName); n != "" {
		return n
	}
	return p.Email
}

type PatientRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"` // identity id
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	DateOfBirth    *time.Time `gorm:"column:date_of_birth;type:date" json:"date_of_birth"`
	BloodType      BloodType  `gorm:"column:blood_type;type:varchar(5)" json:"blood_type"`
	HeightCm       *float64   `gorm:"column:height_cm" json:"height_cm"`
	WeightKg       *float64   `gorm:"column:weight_kg" json:"weight_kg"`
	MedicalHistory string     `gorm:"column:medical_history;type:text" json:"medical_history"` // PHI

	Allergies          []string `gorm:"column:allergies;type:jsonb;serializer:json" json:"allergies"`
	Conditions         []string `gorm:"column:conditions;type:jsonb;serializer:json" json:"conditions"`
	CurrentMedications []string `gorm:"column:current_medications;type:jsonb;serializer:json" json:"current_medications"`

	InsuranceProvider string `gorm:"column:insurance_provider;type:varchar(100)" json:"insurance_provider"`
	InsuranceMemberID string `gorm:"column:insurance_member_id;type:varchar(50)" json:"insurance_member_id"`
	InsurancePlan     string `gorm:"column:insurance_plan;type:varchar(100)" json:"insurance_plan"`
}

func (PatientRecord) TableName() string {
	return "public.patients"
}

// IsOnboarded reports whether the onboarding form has been submitted.
func (p *PatientRecord) IsOnboarded() bool {
	return p.DateOfBirth != nil
}

func (p *PatientRecord) Age(now time.Time) int {
	if p.DateOfBirth == nil {
		return 0
	}
	dob := *p.DateOfBirth
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() ||
		(now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

// Weekday keys of DoctorRecord.AvailableHours.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

var hoursPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d-([01]\d|2[0-3]):[0-5]\d$`)

type DoctorRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"` // identity id
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Specialization      string `gorm:"column:specialization;type:varchar(100);index" json:"specialization"`
	LicenseNumber       string `gorm:"column:license_number;type:varchar(50)" json:"license_number"`
	HospitalAffiliation string `gorm:"column:hospital_affiliation;type:varchar(200)" json:"hospital_affiliation"`
	YearsOfExperience   int    `gorm:"column:years_of_experience" json:"years_of_experience"`

	// weekday -> "HH:MM-HH:MM"
	AvailableHours map[string]string `gorm:"column:available_hours;type:jsonb;serializer:json" json:"available_hours"`
}

func (DoctorRecord) TableName() string {
	return "public.doctors"
}

func (d *DoctorRecord) IsOnboarded() bool {
	return d.Specialization != ""
}

// ValidateAvailableHours checks weekday keys and HH:MM-HH:MM ranges. Empty
// values mean the doctor is unavailable that day.
func ValidateAvailableHours(hours map[string]string) error {
	for day, span := range hours {
		known := false
		for _, w := range Weekdays {
			if w == day {
				known = true
				break
			}
		}
		if !known {
			return ErrInvalidWeekday
		}
		if span == "" {
			continue
		}
		if !hoursPattern.MatchString(span) {
			return ErrInvalidHours
		}
		if span[:5] >= span[6:] {
			return ErrInvalidHours
		}
	}
	return nil
}

// PatientSummary is a row of a doctor's patient list.
type PatientSummary struct {
	ID          uuid.UUID  `json:"id"`
	FullName    string     `json:"full_name"`
	Email       string     `json:"email"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	BloodType   string     `json:"blood_type,omitempty"`
	Conditions  []string   `json:"conditions" gorm:"serializer:json"`
}

// Fields synced into Profile by profile updates. Nil means unchanged.
type NameFields struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

type UpdatePatientCommand struct {
	NameFields
	DateOfBirth        *time.Time
	BloodType          *BloodType
	HeightCm           *float64
	WeightKg           *float64
	MedicalHistory     *string
	Allergies          *[]string
	Conditions         *[]string
	CurrentMedications *[]string
	InsuranceProvider  *string
	InsuranceMemberID  *string
	InsurancePlan      *string
}

func (c *UpdatePatientCommand) Validate(now time.Time) error {
	if c.BloodType != nil && *c.BloodType != "" && !c.BloodType.IsValid() {
		return ErrInvalidBloodType
	}
	if c.DateOfBirth != nil && c.DateOfBirth.After(now) {
		return ErrInvalidDateOfBirth
	}
	if (c.HeightCm != nil && *c.HeightCm <= 0) || (c.WeightKg != nil && *c.WeightKg <= 0) {
		return ErrInvalidMeasurement
	}
	return nil
}

// Apply copies the set fields onto r.
func (c *UpdatePatientCommand) Apply(r *PatientRecord) {
	if c.DateOfBirth != nil {
		dob := *c.DateOfBirth
		r.DateOfBirth = &dob
	}
	if c.BloodType != nil {
		r.BloodType = *c.BloodType
	}
	if c.HeightCm != nil {
		r.HeightCm = c.HeightCm
	}
	if c.WeightKg != nil {
		r.WeightKg = c.WeightKg
	}
	if c.MedicalHistory != nil {
		r.MedicalHistory = *c.MedicalHistory
	}
	if c.Allergies != nil {
		r.Allergies = *c.Allergies
	}
	if c.Conditions != nil {
		r.Conditions = *c.Conditions
	}
	if c.CurrentMedications != nil {
		r.CurrentMedications = *c.CurrentMedications
	}
	if c.InsuranceProvider != nil {
		r.InsuranceProvider = *c.InsuranceProvider
	}
	if c.InsuranceMemberID != nil {
		r.InsuranceMemberID = *c.InsuranceMemberID
	}
	if c.InsurancePlan != nil {
		r.InsurancePlan = *c.InsurancePlan
	}
}

type UpdateDoctorCommand struct {
	NameFields
	Specialization      *string
	LicenseNumber       *string
	HospitalAffiliation *string
	YearsOfExperience   *int
	AvailableHours      map[string]string
}

func (c *UpdateDoctorCommand) Validate() error {
	if c.YearsOfExperience != nil && *c.YearsOfExperience < 0 {
		return ErrNegativeExperience
	}
	return ValidateAvailableHours(c.AvailableHours)
}

func (c *UpdateDoctorCommand) Apply(r *DoctorRecord) {
	if c.Specialization != nil {
		r.Specialization = strings.TrimSpace(*c.Specialization)
	}
	if c.LicenseNumber != nil {
		r.LicenseNumber = *c.LicenseNumber
	}
	if c.HospitalAffiliation != nil {
		r.HospitalAffiliation = *c.HospitalAffiliation
	}
	if c.YearsOfExperience != nil {
		r.YearsOfExperience = *c.YearsOfExperience
	}
	if c.AvailableHours != nil {
		r.AvailableHours = c.AvailableHours
	}
}

// Apply copies set name fields onto p and recomputes FullName when either
// name part changed.
func (n NameFields) Apply(p *Profile) {
	changed := false
	if n.FirstName != nil {
		p.FirstName = strings.TrimSpace(*n.FirstName)
		changed = true
	}
	if n.LastName != nil {
		p.LastName = strings.TrimSpace(*n.LastName)
		changed = true
	}
	if n.Phone != nil {
		p.Phone = *n.Phone
	}
	if changed {
		if full := strings.TrimSpace(p.FirstName + " " + p.LastName); full != "" {
			p.FullName = full
		}
	}
}

func (n NameFields) IsEmpty() bool {
	return n.FirstName == nil && n.LastName == nil && n.Phone == nil
}
