package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/ai"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/chat"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/prescription"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/profile"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/report"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/settings"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/pkg/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	maxPromptInputLen = 2000
	chatHistoryTurns  = 20
)

// SymptomAnalysis is the structured answer of the symptom checker.
type SymptomAnalysis struct {
	Title    string     `json:"title"`
	Severity string     `json:"severity"` // Low | Moderate | High
	Summary  string     `json:"summary"`
	Advice   string     `json:"advice"`
	ReportID *uuid.UUID `json:"report_id,omitempty"`
}

type ChatReply struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

type HealthAIService struct {
	gen           ai.TextGenerator
	settings      settings.Repository
	profiles      profile.Repository
	prescriptions prescription.Repository
	reports       report.Repository
	chats         chat.Repository
	auditSvc      *AuditService
	metrics       *metrics.Collector
	tracer        trace.Tracer
	log           *zap.Logger
	now           func() time.Time
}

func NewHealthAIService(
	gen ai.TextGenerator,
	settingsRepo settings.Repository,
	profiles profile.Repository,
	prescriptions prescription.Repository,
	reports report.Repository,
	chats chat.Repository,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *HealthAIService {
	return &HealthAIService{
		gen:           gen,
		settings:      settingsRepo,
		profiles:      profiles,
		prescriptions: prescriptions,
		reports:       reports,
		chats:         chats,
		auditSvc:      auditSvc,
		metrics:       m,
		tracer:        otel.Tracer(tracerName),
		log:           log,
		now:           time.Now,
	}
}

// AnalyzeSymptoms asks the model for a structured analysis and files it as
// an ai_analysis report. A failure to file the report is logged only.
func (s *HealthAIService) AnalyzeSymptoms(ctx context.Context, caller *domain.Claims, symptoms string) (*SymptomAnalysis, error) {
	if err := requirePatient(caller); err != nil {
		return nil, err
	}
	symptoms = strings.TrimSpace(symptoms)
	if err := validatePromptInput("symptoms", symptoms); err != nil {
		return nil, err
	}
	st, err := s.enabledSettings(ctx, caller.IdentityID)
	if err != nil {
		return nil, err
	}

	raw, err := s.generate(ctx, "symptoms", ai.SymptomPrompt(symptoms, st.AIDetailLevel == settings.DetailDetailed))
	if err != nil {
		return nil, err
	}

	analysis, err := ai.ExtractJSON[SymptomAnalysis](raw)
	if err != nil {
		s.countGeneration("symptoms", "unparseable")
		s.log.Warn("symptom analysis was not valid JSON", zap.Error(err))
		return nil, err
	}
	severity, err := analysisSeverity(&analysis)
	if err != nil {
		s.countGeneration("symptoms", "unparseable")
		return nil, err
	}

	r := &report.Report{
		PatientID: caller.IdentityID,
		Type:      report.TypeAIAnalysis,
		Severity:  severity,
		Title:     analysis.Title,
		Body:      analysis.Summary + "\n\n" + analysis.Advice,
		Details: map[string]string{
			"symptoms": symptoms,
			"severity": analysis.Severity,
		},
	}
	if err := s.reports.Create(ctx, r); err != nil {
		s.log.Error("failed to store symptom analysis", zap.Error(err))
	} else {
		analysis.ReportID = &r.ID
		s.auditCreateReport(ctx, caller, r)
	}

	return &analysis, nil
}

// analysisSeverity checks the required fields and maps the model's severity
// onto report severities.
func analysisSeverity(a *SymptomAnalysis) (report.Severity, error) {
	a.Title = strings.TrimSpace(a.Title)
	a.Summary = strings.TrimSpace(a.Summary)
	if a.Title == "" || a.Summary == "" {
		return "", fmt.Errorf("%w: analysis is missing title or summary", ai.ErrGenerationFailed)
	}

	switch strings.ToLower(strings.TrimSpace(a.Severity)) {
	case "low":
		a.Severity = "Low"
		return report.SeverityInfo, nil
	case "moderate":
		a.Severity = "Moderate"
		return report.SeverityWarning, nil
	case "high":
		a.Severity = "High"
		return report.SeverityCritical, nil
	}
	return "", fmt.Errorf("%w: unknown severity %q", ai.ErrGenerationFailed, a.Severity)
}

// Chat answers one message within a chat session. An empty sessionID starts
// a new session. Saving either side of the exchange is best effort.
func (s *HealthAIService) Chat(ctx context.Context, caller *domain.Claims, sessionID, message string) (*ChatReply, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}
	message = strings.TrimSpace(message)
	if err := validatePromptInput("message", message); err != nil {
		return nil, err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	} else if len(sessionID) > 64 {
		return nil, &ValidationError{Fields: []string{"session_id: must be at most 64 characters"}}
	}

	st, err := s.enabledSettings(ctx, caller.IdentityID)
	if err != nil {
		return nil, err
	}

	history, err := s.chats.History(ctx, caller.IdentityID, sessionID, chatHistoryTurns)
	if err != nil {
		s.log.Warn("loading chat history", zap.Error(err))
		history = nil
	}
	turns := make([]ai.Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, ai.Turn{FromUser: m.Sender == chat.SenderUser, Text: m.Message})
	}

	s.saveChat(ctx, caller.IdentityID, sessionID, chat.SenderUser, message)

	reply, err := s.generate(ctx, "chat", ai.ChatPrompt(message, turns, st.AIDetailLevel == settings.DetailDetailed))
	if err != nil {
		return nil, err
	}
	reply = strings.TrimSpace(reply)

	s.saveChat(ctx, caller.IdentityID, sessionID, chat.SenderAI, reply)

	return &ChatReply{SessionID: sessionID, Reply: reply}, nil
}

func (s *HealthAIService) ChatHistory(ctx context.Context, caller *domain.Claims, sessionID string) ([]*chat.Message, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}
	return s.chats.History(ctx, caller.IdentityID, sessionID, 100)
}

func (s *HealthAIService) saveChat(ctx context.Context, userID uuid.UUID, sessionID string, sender chat.Sender, text string) {
	m := &chat.Message{UserID: userID, SessionID: sessionID, Sender: sender, Message: text}
	if err := s.chats.Save(ctx, m); err != nil {
		s.log.Warn("failed to save chat message",
			zap.String("sender", string(sender)),
			zap.Error(err),
		)
	}
}

// GenerateReport writes a plain-text health summary from the caller's
// patient record and active prescriptions and stores it as a report.
func (s *HealthAIService) GenerateReport(ctx context.Context, caller *domain.Claims) (*report.Report, error) {
	if err := requirePatient(caller); err != nil {
		return nil, err
	}
	st, err := s.enabledSettings(ctx, caller.IdentityID)
	if err != nil {
		return nil, err
	}

	p, err := s.profiles.GetProfile(ctx, caller.IdentityID)
	if err != nil {
		return nil, err
	}
	rec, err := s.profiles.GetPatient(ctx, caller.IdentityID)
	if err != nil {
		return nil, err
	}
	rx, err := s.prescriptions.ListByPatient(ctx, caller.IdentityID)
	if err != nil {
		return nil, fmt.Errorf("loading prescriptions: %w", err)
	}

	facts := reportFacts(p, rec, rx, s.now())
	text, err := s.generate(ctx, "report", ai.ReportPrompt(facts, st.AIDetailLevel == settings.DetailDetailed))
	if err != nil {
		return nil, err
	}
	text = ai.StripFences(text)

	r := &report.Report{
		PatientID: caller.IdentityID,
		Type:      report.TypeAIGenerated,
		Severity:  report.SeverityInfo,
		Title:     "Health summary " + s.now().Format("2006-01-02"),
		Body:      text,
	}
	if err := s.reports.Create(ctx, r); err != nil {
		s.log.Error("failed to store generated report", zap.Error(err))
		return nil, persistenceError("storing report", err)
	}
	s.auditCreateReport(ctx, caller, r)

	return r, nil
}

func reportFacts(p *profile.Profile, rec *profile.PatientRecord, rx []*prescription.View, now time.Time) []string {
	facts := []string{"Name: " + p.DisplayName()}
	if rec.DateOfBirth != nil {
		facts = append(facts, fmt.Sprintf("Age: %d", rec.Age(now)))
	}
	if rec.BloodType != "" {
		facts = append(facts, "Blood type: "+string(rec.BloodType))
	}
	if rec.HeightCm != nil {
		facts = append(facts, fmt.Sprintf("Height: %.0f cm", *rec.HeightCm))
	}
	if rec.WeightKg != nil {
		facts = append(facts, fmt.Sprintf("Weight: %.1f kg", *rec.WeightKg))
	}
	if len(rec.Conditions) > 0 {
		facts = append(facts, "Conditions: "+strings.Join(rec.Conditions, ", "))
	}
	if len(rec.Allergies) > 0 {
		facts = append(facts, "Allergies: "+strings.Join(rec.Allergies, ", "))
	}
	if len(rec.CurrentMedications) > 0 {
		facts = append(facts, "Self-reported medications: "+strings.Join(rec.CurrentMedications, ", "))
	}
	if rec.MedicalHistory != "" {
		facts = append(facts, "Medical history: "+rec.MedicalHistory)
	}
	for _, v := range rx {
		if v.Status != prescription.StatusActive {
			continue
		}
		facts = append(facts, fmt.Sprintf("Prescription: %s %s, %s", v.MedicationName, v.Dosage, v.Frequency))
	}
	return facts
}

func (s *HealthAIService) enabledSettings(ctx context.Context, id uuid.UUID) (*settings.Settings, error) {
	st, err := settingsOrDefault(ctx, s.settings, id)
	if err != nil {
		return nil, err
	}
	if !st.AIEnabled {
		return nil, ErrAIDisabled
	}
	return st, nil
}

// generate wraps one model call in a span and the generation metrics.
func (s *HealthAIService) generate(ctx context.Context, feature, prompt string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "ai.Generate", trace.WithAttributes(attribute.String("feature", feature)))
	defer span.End()

	start := time.Now()
	text, err := s.gen.Generate(ctx, prompt)
	if s.metrics != nil {
		s.metrics.AIGenerationTime.WithLabelValues(feature).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if !errors.Is(err, ai.ErrGenerationFailed) {
			err = fmt.Errorf("%w: %w", ai.ErrGenerationFailed, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		s.countGeneration(feature, "failure")
		s.log.Error("ai generation failed", zap.String("feature", feature), zap.Error(err))
		return "", err
	}
	s.countGeneration(feature, "success")
	return text, nil
}

func (s *HealthAIService) countGeneration(feature, outcome string) {
	if s.metrics != nil {
		s.metrics.AIGenerationsTotal.WithLabelValues(feature, outcome).Inc()
	}
}

func (s *HealthAIService) auditCreateReport(ctx context.Context, caller *domain.Claims, r *report.Report) {
	s.auditSvc.LogAsync(ctx, AuditEntry{
		IdentityID:   caller.IdentityID,
		Role:         caller.Role,
		Action:       domain.ActionCreate,
		ResourceType: "report",
		ResourceID:   r.ID.String(),
		Changes:      fmt.Sprintf(`{"type":%q}`, r.Type),
	})
}

func requirePatient(caller *domain.Claims) error {
	if caller == nil {
		return ErrNotAuthenticated
	}
	if caller.Role != domain.RolePatient {
		return ErrForbidden
	}
	return nil
}

func validatePromptInput(field, v string) error {
	if v == "" {
		return &ValidationError{Fields: []string{field + ": is required"}}
	}
	if utf8.RuneCountInString(v) > maxPromptInputLen {
		return &ValidationError{Fields: []string{fmt.Sprintf("%s: must be at most %d characters", field, maxPromptInputLen)}}
	}
	return nil
}
