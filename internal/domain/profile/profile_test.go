package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestNameFields_Apply(t *testing.T) {
	p := &Profile{FullName: "Old Name", FirstName: "Old", LastName: "Name"}

	NameFields{FirstName: ptr(" Ann ")}.Apply(p)
	assert.Equal(t, "Ann", p.FirstName)
	assert.Equal(t, "Ann Name", p.FullName)

	NameFields{Phone: ptr("555-0100")}.Apply(p)
	assert.Equal(t, "Ann Name", p.FullName)
	assert.Equal(t, "555-0100", p.Phone)
}

func TestUpdatePatientCommand(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		cmd  UpdatePatientCommand
		want error
	}{
		{"empty", UpdatePatientCommand{}, nil},
		{"bad blood type", UpdatePatientCommand{BloodType: ptr(BloodType("C+"))}, ErrInvalidBloodType},
		{"future dob", UpdatePatientCommand{DateOfBirth: ptr(now.AddDate(0, 0, 1))}, ErrInvalidDateOfBirth},
		{"zero height", UpdatePatientCommand{HeightCm: ptr(0.0)}, ErrInvalidMeasurement},
		{"valid", UpdatePatientCommand{BloodType: ptr(BloodTypeONeg), WeightKg: ptr(70.5)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.cmd.Validate(now), tt.want)
		})
	}

	rec := &PatientRecord{BloodType: BloodTypeAPos, Allergies: []string{"pollen"}}
	cmd := UpdatePatientCommand{DateOfBirth: ptr(now.AddDate(-30, 0, 0)), Conditions: ptr([]string{"asthma"})}
	cmd.Apply(rec)

	assert.True(t, rec.IsOnboarded())
	assert.Equal(t, 30, rec.Age(now))
	assert.Equal(t, BloodTypeAPos, rec.BloodType)
	assert.Equal(t, []string{"pollen"}, rec.Allergies)
	assert.Equal(t, []string{"asthma"}, rec.Conditions)
}

func TestValidateAvailableHours(t *testing.T) {
	assert.NoError(t, ValidateAvailableHours(map[string]string{"monday": "09:00-17:00", "friday": ""}))
	assert.ErrorIs(t, ValidateAvailableHours(map[string]string{"mon": "09:00-17:00"}), ErrInvalidWeekday)
	assert.ErrorIs(t, ValidateAvailableHours(map[string]string{"monday": "9-5"}), ErrInvalidHours)
	assert.ErrorIs(t, ValidateAvailableHours(map[string]string{"monday": "17:00-09:00"}), ErrInvalidHours)
}

func TestUpdateDoctorCommand_Apply(t *testing.T) {
	rec := &DoctorRecord{LicenseNumber: "L-1"}
	assert.False(t, rec.IsOnboarded())

	cmd := UpdateDoctorCommand{Specialization: ptr(" Cardiology "), YearsOfExperience: ptr(12)}
	assert.NoError(t, cmd.Validate())
	cmd.Apply(rec)

	assert.True(t, rec.IsOnboarded())
	assert.Equal(t, "Cardiology", rec.Specialization)
	assert.Equal(t, "L-1", rec.LicenseNumber)

	assert.ErrorIs(t, (&UpdateDoctorCommand{YearsOfExperience: ptr(-1)}).Validate(), ErrNegativeExperience)
}
