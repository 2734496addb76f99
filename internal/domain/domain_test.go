package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"patient", RolePatient, false},
		{" Doctor ", RoleDoctor, false},
		{"admin", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRole)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRole_DashboardPath(t *testing.T) {
	assert.Equal(t, "/patient/dashboard", RolePatient.DashboardPath())
	assert.Equal(t, "/doctor/dashboard", RoleDoctor.DashboardPath())
	assert.Equal(t, RolePatient, RoleDoctor.Other())
}

func TestMetadata_RoleOr(t *testing.T) {
	assert.Equal(t, RolePatient, Metadata{}.RoleOr(RolePatient))
	assert.Equal(t, RoleDoctor, Metadata{Role: RoleDoctor}.RoleOr(RolePatient))
	assert.Equal(t, RolePatient, Metadata{Role: "nurse"}.RoleOr(RolePatient))
}
