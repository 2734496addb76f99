package v1

import (
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth         *AuthHandler
	Profile      *ProfileHandler
	Appointments *AppointmentHandler
	AI           *AIHandler
	Portal       *PortalHandler
}

// RegisterRoutes mounts the /api/v1 surface. Sessions must already be
// resolved by middleware.Authenticate; authLimit guards the credential
// endpoints.
func RegisterRoutes(r *gin.Engine, h Handlers, authLimit gin.HandlerFunc) {
	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/sign-up", authLimit, h.Auth.SignUp)
		auth.POST("/verify", authLimit, h.Auth.Verify)
		auth.POST("/sign-in", authLimit, h.Auth.SignIn)
		auth.POST("/refresh", authLimit, h.Auth.Refresh)
		auth.GET("/oauth/:provider", authLimit, h.Auth.OAuthStart)
		auth.GET("/oauth/:provider/callback", authLimit, h.Auth.OAuthCallback)
		auth.GET("/route-check", h.Auth.RouteCheck)

		signedIn := auth.Group("", middleware.RequireAuth())
		signedIn.POST("/sign-out", h.Auth.SignOut)
		signedIn.GET("/me", h.Auth.Me)
		signedIn.POST("/role", h.Auth.AssignRole)
	}

	shared := api.Group("", middleware.RequireAuth())
	{
		shared.GET("/profile", h.Profile.Get)
		shared.GET("/settings", h.Profile.GetSettings)
		shared.PUT("/settings", h.Profile.UpdateSettings)

		shared.GET("/notifications", h.Portal.Notifications)
		shared.GET("/notifications/unread-count", h.Portal.UnreadCount)
		shared.POST("/notifications/read-all", h.Portal.MarkAllNotificationsRead)
		shared.POST("/notifications/:id/read", h.Portal.MarkNotificationRead)

		shared.GET("/tips/daily", h.Portal.DailyTip)
		shared.GET("/reports/:id", h.Portal.Report)

		appts := shared.Group("/appointments")
		appts.GET("", h.Appointments.List)
		appts.POST("", h.Appointments.Schedule)
		appts.GET("/upcoming", h.Appointments.Upcoming)
		appts.GET("/:id", h.Appointments.Get)
		appts.POST("/:id/cancel", h.Appointments.Cancel)
		appts.POST("/:id/confirm", h.Appointments.Confirm)
		appts.POST("/:id/complete", h.Appointments.Complete)
		appts.POST("/:id/no-show", h.Appointments.NoShow)
	}

	// RoleGate runs first so an anonymous caller learns where to sign in.
	patient := api.Group("/patient", middleware.RoleGate(), middleware.RequireAuth())
	{
		patient.GET("/dashboard", h.Portal.PatientDashboard)
		patient.PUT("/profile", h.Profile.UpdatePatient)
		patient.GET("/prescriptions", h.Portal.Prescriptions)
		patient.POST("/prescriptions/:id/refill", h.Portal.RequestRefill)
		patient.GET("/reports", h.Portal.Reports)

		patient.POST("/ai/symptoms", h.AI.AnalyzeSymptoms)
		patient.POST("/ai/chat", h.AI.Chat)
		patient.GET("/ai/chat/:session_id", h.AI.ChatHistory)
		patient.POST("/ai/report", h.AI.GenerateReport)
	}

	doctor := api.Group("/doctor", middleware.RoleGate(), middleware.RequireAuth())
	{
		doctor.GET("/dashboard", h.Portal.DoctorDashboard)
		doctor.PUT("/profile", h.Profile.UpdateDoctor)
		doctor.GET("/patients", h.Portal.DoctorPatients)
	}
}
