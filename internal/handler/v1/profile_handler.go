package v1

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/profile"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/settings"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProfileService interface {
	GetFullProfile(ctx context.Context, caller *domain.Claims) (*service.FullProfile, error)
	UpdatePatientProfile(ctx context.Context, caller *domain.Claims, cmd *profile.UpdatePatientCommand) (*profile.PatientRecord, error)
	UpdateDoctorProfile(ctx context.Context, caller *domain.Claims, cmd *profile.UpdateDoctorCommand) (*profile.DoctorRecord, error)
	GetSettings(ctx context.Context, caller *domain.Claims) (*settings.Settings, error)
	UpdateSettings(ctx context.Context, caller *domain.Claims, cmd *settings.UpdateCommand) (*settings.Settings, error)
}

type ProfileHandler struct {
	svc ProfileService
	log *zap.Logger
}

func NewProfileHandler(svc ProfileService, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, log: log}
}

type nameFieldsRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=20"`
}

func (r nameFieldsRequest) toCommand() profile.NameFields {
	return profile.NameFields{FirstName: r.FirstName, LastName: r.LastName, Phone: r.Phone}
}

type updatePatientRequest struct {
	nameFieldsRequest
	DateOfBirth        *string   `json:"date_of_birth"`
	BloodType          *string   `json:"blood_type"`
	HeightCm           *float64  `json:"height_cm"`
	WeightKg           *float64  `json:"weight_kg"`
	MedicalHistory     *string   `json:"medical_history" binding:"omitempty,max=5000"`
	Allergies          *[]string `json:"allergies"`
	Conditions         *[]string `json:"conditions"`
	CurrentMedications *[]string `json:"current_medications"`
	InsuranceProvider  *string   `json:"insurance_provider" binding:"omitempty,max=100"`
	InsuranceMemberID  *string   `json:"insurance_member_id" binding:"omitempty,max=50"`
	InsurancePlan      *string   `json:"insurance_plan" binding:"omitempty,max=100"`
}

type updateDoctorRequest struct {
	nameFieldsRequest
	Specialization      *string           `json:"specialization" binding:"omitempty,max=100"`
	LicenseNumber       *string           `json:"license_number" binding:"omitempty,max=50"`
	HospitalAffiliation *string           `json:"hospital_affiliation" binding:"omitempty,max=200"`
	YearsOfExperience   *int              `json:"years_of_experience"`
	AvailableHours      map[string]string `json:"available_hours"`
}

type updateSettingsRequest struct {
	AIEnabled          *bool   `json:"ai_enabled"`
	AIDetailLevel      *string `json:"ai_detail_level"`
	NotificationsPush  *bool   `json:"notifications_push"`
	NotificationsEmail *bool   `json:"notifications_email"`
	Theme              *string `json:"theme"`
}

func (h *ProfileHandler) Get(c *gin.Context) {
	full, err := h.svc.GetFullProfile(c.Request.Context(), caller(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, full)
}

func (h *ProfileHandler) UpdatePatient(c *gin.Context) {
	var req updatePatientRequest
	if !bindJSON(c, &req) {
		return
	}
	dob, ok := parseDate(c, "date_of_birth", req.DateOfBirth)
	if !ok {
		return
	}

	cmd := &profile.UpdatePatientCommand{
		NameFields:         req.toCommand(),
		DateOfBirth:        dob,
		HeightCm:           req.HeightCm,
		WeightKg:           req.WeightKg,
		MedicalHistory:     req.MedicalHistory,
		Allergies:          req.Allergies,
		Conditions:         req.Conditions,
		CurrentMedications: req.CurrentMedications,
		InsuranceProvider:  req.InsuranceProvider,
		InsuranceMemberID:  req.InsuranceMemberID,
		InsurancePlan:      req.InsurancePlan,
	}
	if req.BloodType != nil {
		bt := profile.BloodType(*req.BloodType)
		cmd.BloodType = &bt
	}

	rec, err := h.svc.UpdatePatientProfile(c.Request.Context(), caller(c), cmd)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, rec)
}

func (h *ProfileHandler) UpdateDoctor(c *gin.Context) {
	var req updateDoctorRequest
	if !bindJSON(c, &req) {
		return
	}
	rec, err := h.svc.UpdateDoctorProfile(c.Request.Context(), caller(c), &profile.UpdateDoctorCommand{
		NameFields:          req.toCommand(),
		Specialization:      req.Specialization,
		LicenseNumber:       req.LicenseNumber,
		HospitalAffiliation: req.HospitalAffiliation,
		YearsOfExperience:   req.YearsOfExperience,
		AvailableHours:      req.AvailableHours,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, rec)
}

func (h *ProfileHandler) GetSettings(c *gin.Context) {
	st, err := h.svc.GetSettings(c.Request.Context(), caller(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, st)
}

func (h *ProfileHandler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd := &settings.UpdateCommand{
		AIEnabled:          req.AIEnabled,
		NotificationsPush:  req.NotificationsPush,
		NotificationsEmail: req.NotificationsEmail,
		Theme:              req.Theme,
	}
	if req.AIDetailLevel != nil {
		lvl := settings.DetailLevel(*req.AIDetailLevel)
		cmd.AIDetailLevel = &lvl
	}

	st, err := h.svc.UpdateSettings(c.Request.Context(), caller(c), cmd)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, st)
}
