package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/ai"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/prescription"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/profile"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/report"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/settings"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/identity"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

func respondServiceError(c *gin.Context, log *zap.Logger, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, profile.ErrProfileNotFound),
		errors.Is(err, profile.ErrPatientNotFound),
		errors.Is(err, profile.ErrDoctorNotFound),
		errors.Is(err, appointment.ErrAppointmentNotFound),
		errors.Is(err, prescription.ErrPrescriptionNotFound),
		errors.Is(err, report.ErrReportNotFound),
		errors.Is(err, notification.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, identity.ErrEmailTaken),
		errors.Is(err, appointment.ErrAppointmentConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, appointment.ErrScheduledInPast),
		errors.Is(err, appointment.ErrInvalidDuration),
		errors.Is(err, appointment.ErrInvalidStatusTransition),
		errors.Is(err, appointment.ErrInvalidAppointmentType),
		errors.Is(err, prescription.ErrNotRefillable),
		errors.Is(err, report.ErrInvalidReportType),
		errors.Is(err, profile.ErrInvalidBloodType),
		errors.Is(err, profile.ErrInvalidDateOfBirth),
		errors.Is(err, profile.ErrInvalidMeasurement),
		errors.Is(err, profile.ErrInvalidWeekday),
		errors.Is(err, profile.ErrInvalidHours),
		errors.Is(err, profile.ErrNegativeExperience),
		errors.Is(err, settings.ErrInvalidDetailLevel),
		errors.Is(err, settings.ErrInvalidTheme),
		errors.Is(err, identity.ErrInvalidEmail),
		errors.Is(err, identity.ErrWeakPassword),
		errors.Is(err, identity.ErrChallengeInvalid),
		errors.Is(err, identity.ErrChallengeExpired):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrNotAuthenticated),
		errors.Is(err, identity.ErrSessionRevoked):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})

	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})

	case errors.Is(err, service.ErrAIDisabled):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error(), Code: "AI_DISABLED"})

	case errors.Is(err, identity.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})

	case errors.Is(err, identity.ErrEmailNotVerified):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error(), Code: "EMAIL_NOT_VERIFIED"})

	case errors.Is(err, identity.ErrAccountLocked):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error: "account temporarily locked",
			Code:  "ACCOUNT_LOCKED",
		})

	case errors.Is(err, ai.ErrGenerationFailed):
		log.Warn("ai generation failed", zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error: "the assistant could not answer right now, try again",
			Code:  "AI_GENERATION_FAILED",
		})

	case errors.Is(err, service.ErrPersistenceFailure):
		log.Error("persistence failure", zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to save your changes, try again",
			Code:  "PERSISTENCE_FAILURE",
		})

	default:
		log.Error("unhandled service error", zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

// parseDate reads an optional YYYY-MM-DD field.
func parseDate(c *gin.Context, field string, raw *string) (*time.Time, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.DateOnly, *raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + field + ": expected YYYY-MM-DD"})
		return nil, false
	}
	return &t, true
}

// caller returns the authenticated claims. Routes behind RequireAuth
// always have them; the nil case is left to the services to reject.
func caller(c *gin.Context) *domain.Claims {
	return middleware.ClaimsFrom(c)
}
