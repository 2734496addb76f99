package prescription

import "errors"

var (
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrNotRefillable        = errors.New("prescription cannot be refilled")
)
