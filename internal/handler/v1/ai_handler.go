package v1

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/chat"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/report"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HealthAIService interface {
	AnalyzeSymptoms(ctx context.Context, caller *domain.Claims, symptoms string) (*service.SymptomAnalysis, error)
	Chat(ctx context.Context, caller *domain.Claims, sessionID, message string) (*service.ChatReply, error)
	ChatHistory(ctx context.Context, caller *domain.Claims, sessionID string) ([]*chat.Message, error)
	GenerateReport(ctx context.Context, caller *domain.Claims) (*report.Report, error)
}

type AIHandler struct {
	svc HealthAIService
	log *zap.Logger
}

func NewAIHandler(svc HealthAIService, log *zap.Logger) *AIHandler {
	return &AIHandler{svc: svc, log: log}
}

type symptomsRequest struct {
	Symptoms string `json:"symptoms" binding:"required"`
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

func (h *AIHandler) AnalyzeSymptoms(c *gin.Context) {
	var req symptomsRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.AnalyzeSymptoms(c.Request.Context(), caller(c), req.Symptoms)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

func (h *AIHandler) Chat(c *gin.Context) {
	var req chatRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.Chat(c.Request.Context(), caller(c), req.SessionID, req.Message)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

func (h *AIHandler) ChatHistory(c *gin.Context) {
	msgs, err := h.svc.ChatHistory(c.Request.Context(), caller(c), c.Param("session_id"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	if msgs == nil {
		msgs = []*chat.Message{}
	}
	respondOK(c, msgs)
}

func (h *AIHandler) GenerateReport(c *gin.Context) {
	rep, err := h.svc.GenerateReport(c.Request.Context(), caller(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, rep)
}
