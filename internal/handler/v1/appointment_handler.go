package v1

import (
	"context"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/appointment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AppointmentService interface {
	ScheduleAppointment(ctx context.Context, caller *domain.Claims, cmd *appointment.CreateAppointmentCommand) (*appointment.Appointment, error)
	GetAppointment(ctx context.Context, caller *domain.Claims, id uuid.UUID) (*appointment.Appointment, error)
	CancelAppointment(ctx context.Context, caller *domain.Claims, id uuid.UUID, reason string) (*appointment.Appointment, error)
	ConfirmAppointment(ctx context.Context, caller *domain.Claims, id uuid.UUID) (*appointment.Appointment, error)
	CompleteAppointment(ctx context.Context, caller *domain.Claims, id uuid.UUID) (*appointment.Appointment, error)
	MarkNoShow(ctx context.Context, caller *domain.Claims, id uuid.UUID) (*appointment.Appointment, error)
	ListAppointments(ctx context.Context, caller *domain.Claims, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error)
	Upcoming(ctx context.Context, caller *domain.Claims, limit int) ([]*appointment.Appointment, error)
}

type AppointmentHandler struct {
	svc AppointmentService
	log *zap.Logger
}

func NewAppointmentHandler(svc AppointmentService, log *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, log: log}
}

// The caller fills their own side; the other party comes from the body.
type scheduleAppointmentRequest struct {
	DoctorID     uuid.UUID `json:"doctor_id"`
	PatientID    uuid.UUID `json:"patient_id"`
	ScheduledAt  time.Time `json:"scheduled_at" binding:"required"`
	DurationMins int       `json:"duration_mins" binding:"required"`
	Type         string    `json:"type" binding:"required"`
	Reason       string    `json:"reason" binding:"max=2000"`
	Location     string    `json:"location" binding:"max=200"`
}

type cancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

func (h *AppointmentHandler) Schedule(c *gin.Context) {
	var req scheduleAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.svc.ScheduleAppointment(c.Request.Context(), caller(c), &appointment.CreateAppointmentCommand{
		PatientID:    req.PatientID,
		DoctorID:     req.DoctorID,
		ScheduledAt:  req.ScheduledAt,
		DurationMins: req.DurationMins,
		Type:         appointment.AppointmentType(req.Type),
		Reason:       req.Reason,
		Location:     req.Location,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, a)
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.GetAppointment(c.Request.Context(), caller(c), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, a)
}

func (h *AppointmentHandler) List(c *gin.Context) {
	q := &appointment.ListAppointmentsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("status"); raw != "" {
		st := appointment.AppointmentStatus(raw)
		q.Status = &st
	}
	from, ok := parseDate(c, "from", optionalQuery(c, "from"))
	if !ok {
		return
	}
	to, ok := parseDate(c, "to", optionalQuery(c, "to"))
	if !ok {
		return
	}
	q.DateFrom, q.DateTo = from, to

	page, err := h.svc.ListAppointments(c.Request.Context(), caller(c), q)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, page)
}

func (h *AppointmentHandler) Upcoming(c *gin.Context) {
	items, err := h.svc.Upcoming(c.Request.Context(), caller(c), parseQueryInt(c, "limit", 5))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, items)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req cancelAppointmentRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	a, err := h.svc.CancelAppointment(c.Request.Context(), caller(c), id, req.Reason)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, a)
}

func (h *AppointmentHandler) Confirm(c *gin.Context)  { h.transition(c, h.svc.ConfirmAppointment) }
func (h *AppointmentHandler) Complete(c *gin.Context) { h.transition(c, h.svc.CompleteAppointment) }
func (h *AppointmentHandler) NoShow(c *gin.Context)   { h.transition(c, h.svc.MarkNoShow) }

func (h *AppointmentHandler) transition(c *gin.Context, fn func(context.Context, *domain.Claims, uuid.UUID) (*appointment.Appointment, error)) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	a, err := fn(c.Request.Context(), caller(c), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, a)
}

func optionalQuery(c *gin.Context, key string) *string {
	v, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	return &v
}
