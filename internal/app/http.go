package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/ai"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/cache"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/config"
	v1 "github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/identity"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/identity/oidc"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/repository/postgres"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/service"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/session"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/pkg/metrics"
)

// metric names may not contain the dash used in APP_NAME
const metricsNamespace = "healthbuddy"

type services struct {
	audit *service.AuditService
}

func setupHTTP(ctx context.Context, cfg *config.Config, infra *Infra, log *zap.Logger) (*gin.Engine, *services, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewCollector(metricsNamespace, reg)

	// ----------------------------
	// Repositories
	// ----------------------------

	accounts := postgres.NewAccountRepository(infra.DB)
	profiles := postgres.NewProfileRepository(infra.DB)
	appointments := postgres.NewAppointmentRepository(infra.DB)
	prescriptions := postgres.NewPrescriptionRepository(infra.DB)
	reports := postgres.NewReportRepository(infra.DB)
	chats := postgres.NewChatRepository(infra.DB)
	notifications := postgres.NewNotificationRepository(infra.DB)
	tips := postgres.NewTipRepository(infra.DB)
	userSettings := postgres.NewSettingsRepository(infra.DB)
	audits := postgres.NewAuditRepository(infra.DB)

	// ----------------------------
	// Identity
	// ----------------------------

	cookie := session.CookieOptions{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
	}
	provider := identity.NewLocalProvider(
		accounts,
		identity.NewRedisChallengeStore(infra.Redis),
		session.NewRedisStore(infra.Redis),
		auth.NewJWTManager(cfg.JWT),
		identity.NewLogNotifier(log.Named("challenge")),
		cfg.Session,
		log.Named("identity"),
	)
	roleCache := cache.NewRedisRoleCache(infra.Redis, cfg.Cache.RoleTTL)

	oauth, err := setupOAuth(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	generator, err := setupGenerator(ctx, cfg.AI, log)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Services
	// ----------------------------

	auditSvc := service.NewAuditService(audits, m, log.Named("audit"))
	roleSync := service.NewRoleSynchronizer(provider, profiles, roleCache, auditSvc, m, log)
	authSvc := service.NewAuthService(provider, roleSync, profiles, auditSvc, m, log)
	resolver := service.NewRoleResolver(roleCache, profiles, m, log)
	notifySvc := service.NewNotificationService(notifications, log)
	tipSvc := service.NewTipService(tips, log)
	profileSvc := service.NewProfileService(profiles, userSettings, auditSvc, log)
	apptSvc := service.NewAppointmentService(appointments, profiles, notifySvc, auditSvc, m, log)
	rxSvc := service.NewPrescriptionService(prescriptions, auditSvc, log)
	reportSvc := service.NewReportService(reports, auditSvc)
	dashSvc := service.NewDashboardService(profiles, reports, appointments, notifications, tipSvc, log)
	aiSvc := service.NewHealthAIService(generator, userSettings, profiles, prescriptions, reports, chats, auditSvc, m, log)

	handlers := v1.Handlers{
		Auth:         v1.NewAuthHandler(authSvc, roleSync, oauth, cookie, log),
		Profile:      v1.NewProfileHandler(profileSvc, log),
		Appointments: v1.NewAppointmentHandler(apptSvc, log),
		AI:           v1.NewAIHandler(aiSvc, log),
		Portal:       v1.NewPortalHandler(dashSvc, notifySvc, rxSvc, reportSvc, tipSvc, log),
	}

	// ----------------------------
	// Router
	// ----------------------------

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true

	global := middleware.NewRateLimiter("global", rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.BurstSize, m)
	authLimit := middleware.NewRateLimiter("auth", middleware.PerMinute(cfg.RateLimit.AuthRequestsPerMinute), cfg.RateLimit.AuthRequestsPerMinute, m)

	router.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(),
		middleware.Logger(log.Named("http")),
		middleware.Metrics(m),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.CORS),
		global.Middleware(),
		middleware.Authenticate(provider, resolver, cookie, log),
	)

	router.GET("/health", healthCheck(infra.DB, infra.Redis))
	router.GET("/metrics", gin.WrapH(metrics.MetricsHandler(reg)))

	v1.RegisterRoutes(router, handlers, authLimit.Middleware())

	// Pages are served elsewhere; unmatched role-scoped paths still get
	// the same redirects a page request would.
	router.NoRoute(middleware.RoleGate(), func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router, &services{audit: auditSvc}, nil
}

// setupOAuth returns nil when no provider is configured so the OAuth routes
// answer 404.
func setupOAuth(ctx context.Context, cfg *config.Config) (v1.OAuthProviders, error) {
	if !cfg.OAuth.GoogleEnabled() {
		return nil, nil
	}
	google, err := oidc.NewGoogle(ctx,
		cfg.OAuth.GoogleClientID,
		cfg.OAuth.GoogleClientSecret,
		cfg.App.BaseURL+"/api/v1/auth/oauth/google/callback",
	)
	if err != nil {
		return nil, err
	}
	return oidc.NewRegistry(google), nil
}

func setupGenerator(ctx context.Context, cfg config.AIConfig, log *zap.Logger) (ai.TextGenerator, error) {
	if !cfg.Enabled || cfg.APIKey == "" {
		log.Warn("ai generation disabled, no api key configured")
		return ai.DisabledGenerator{}, nil
	}
	gen, err := ai.NewGeminiGenerator(ctx, cfg, log.Named("gemini"))
	if err != nil {
		return nil, err
	}
	return gen, nil
}

func healthCheck(db *gorm.DB, rdb redis.UniversalClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{"database": "ok", "redis": "ok"}
		if err := database.Ping(ctx, db); err != nil {
			status = http.StatusServiceUnavailable
			checks["database"] = err.Error()
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			status = http.StatusServiceUnavailable
			checks["redis"] = err.Error()
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "checks": checks})
	}
}
