package profile

import "errors"

var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrPatientNotFound    = errors.New("patient record not found")
	ErrDoctorNotFound     = errors.New("doctor record not found")
	ErrInvalidBloodType   = errors.New("invalid blood type")
	ErrInvalidDateOfBirth = errors.New("date of birth cannot be in the future")
	ErrInvalidMeasurement = errors.New("height and weight must be positive")
	ErrInvalidWeekday     = errors.New("available hours must be keyed by weekday")
	ErrInvalidHours       = errors.New("available hours must look like HH:MM-HH:MM")
	ErrNegativeExperience = errors.New("years of experience cannot be negative")
)
