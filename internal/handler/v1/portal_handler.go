package v1

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/prescription"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/profile"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/report"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/tip"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DashboardService interface {
	Patient(ctx context.Context, caller *domain.Claims) (*service.PatientDashboard, error)
	Doctor(ctx context.Context, caller *domain.Claims) (*service.DoctorDashboard, error)
	Patients(ctx context.Context, caller *domain.Claims, limit int) ([]*profile.PatientSummary, error)
}

type NotificationService interface {
	Feed(ctx context.Context, caller *domain.Claims) (*service.NotificationFeed, error)
	UnreadCount(ctx context.Context, caller *domain.Claims) (int64, error)
	MarkRead(ctx context.Context, caller *domain.Claims, id uuid.UUID) error
	MarkAllRead(ctx context.Context, caller *domain.Claims) (int64, error)
}

type PrescriptionService interface {
	ListPrescriptions(ctx context.Context, caller *domain.Claims) ([]*prescription.View, error)
	RequestRefill(ctx context.Context, caller *domain.Claims, id uuid.UUID) (*prescription.Prescription, error)
}

type ReportService interface {
	ListReports(ctx context.Context, caller *domain.Claims, limit int) ([]*report.Report, error)
	GetReport(ctx context.Context, caller *domain.Claims, id uuid.UUID) (*report.Report, error)
}

type TipService interface {
	DailyTip(ctx context.Context) *tip.DailyTip
}

// PortalHandler serves the read-mostly parts of the portal.
type PortalHandler struct {
	dashboards    DashboardService
	notifications NotificationService
	prescriptions PrescriptionService
	reports       ReportService
	tips          TipService
	log           *zap.Logger
}

func NewPortalHandler(
	dashboards DashboardService,
	notifications NotificationService,
	prescriptions PrescriptionService,
	reports ReportService,
	tips TipService,
	log *zap.Logger,
) *PortalHandler {
	return &PortalHandler{
		dashboards:    dashboards,
		notifications: notifications,
		prescriptions: prescriptions,
		reports:       reports,
		tips:          tips,
		log:           log,
	}
}

func (h *PortalHandler) PatientDashboard(c *gin.Context) {
	d, err := h.dashboards.Patient(c.Request.Context(), caller(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, d)
}

func (h *PortalHandler) DoctorDashboard(c *gin.Context) {
	d, err := h.dashboards.Doctor(c.Request.Context(), caller(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, d)
}

func (h *PortalHandler) DoctorPatients(c *gin.Context) {
	list, err := h.dashboards.Patients(c.Request.Context(), caller(c), parseQueryInt(c, "limit", 10))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	if list == nil {
		list = []*profile.PatientSummary{}
	}
	respondOK(c, list)
}

func (h *PortalHandler) Notifications(c *gin.Context) {
	feed, err := h.notifications.Feed(c.Request.Context(), caller(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, feed)
}

func (h *PortalHandler) UnreadCount(c *gin.Context) {
	n, err := h.notifications.UnreadCount(c.Request.Context(), caller(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"unread": n})
}

func (h *PortalHandler) MarkNotificationRead(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), caller(c), id); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"id": id, "is_read": true})
}

func (h *PortalHandler) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.notifications.MarkAllRead(c.Request.Context(), caller(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"updated": n})
}

func (h *PortalHandler) DailyTip(c *gin.Context) {
	respondOK(c, h.tips.DailyTip(c.Request.Context()))
}

func (h *PortalHandler) Prescriptions(c *gin.Context) {
	list, err := h.prescriptions.ListPrescriptions(c.Request.Context(), caller(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	if list == nil {
		list = []*prescription.View{}
	}
	respondOK(c, list)
}

func (h *PortalHandler) RequestRefill(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.prescriptions.RequestRefill(c.Request.Context(), caller(c), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, p)
}

func (h *PortalHandler) Reports(c *gin.Context) {
	list, err := h.reports.ListReports(c.Request.Context(), caller(c), parseQueryInt(c, "limit", 20))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	if list == nil {
		list = []*report.Report{}
	}
	respondOK(c, list)
}

func (h *PortalHandler) Report(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	rep, err := h.reports.GetReport(c.Request.Context(), caller(c), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, rep)
}
