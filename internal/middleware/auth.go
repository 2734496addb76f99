package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/access"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/identity"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionKey = "session"

type SessionSource interface {
	CurrentSession(ctx context.Context, token string) (*identity.SessionInfo, error)
}

type RoleSource interface {
	Resolve(ctx context.Context, claims *domain.Claims) domain.Role
}

// Authenticate resolves the request's session from a Bearer token or the
// session cookie. Requests without a valid session pass through
// unauthenticated; RequireAuth and RoleGate decide what that means.
//
// The role on the stored claims is replaced by the resolved one, because
// the token's copy goes stale after a role change.
func Authenticate(sessions SessionSource, roles RoleSource, cookie session.CookieOptions, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = session.ReadCookie(c.Request, cookie)
		}
		if token == "" {
			c.Next()
			return
		}

		info, err := sessions.CurrentSession(c.Request.Context(), token)
		if err != nil {
			log.Warn("resolving session", zap.String("request_id", GetRequestID(c)), zap.Error(err))
		}
		if info != nil {
			info.Claims.Role = roles.Resolve(c.Request.Context(), &info.Claims)
			c.Set(sessionKey, info)
		}
		c.Next()
	}
}

func bearerToken(h string) string {
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// SessionFrom returns the resolved session, or nil.
func SessionFrom(c *gin.Context) *identity.SessionInfo {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	info, _ := v.(*identity.SessionInfo)
	return info
}

// ClaimsFrom returns the caller's claims, or nil when unauthenticated.
func ClaimsFrom(c *gin.Context) *domain.Claims {
	if info := SessionFrom(c); info != nil {
		return &info.Claims
	}
	return nil
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ClaimsFrom(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// RoleGate applies the routing decision for role-scoped paths. Page
// requests are redirected; API requests get 401 or 403 with the location
// the client should go to.
func RoleGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		var role domain.Role
		if claims != nil {
			role = claims.Role
		}

		path := c.Request.URL.Path
		d := access.Decide(claims != nil, role, path)
		if d.Outcome == access.Allow {
			c.Next()
			return
		}

		if !access.IsAPI(path) {
			c.Redirect(http.StatusFound, d.Location)
			c.Abort()
			return
		}

		status := http.StatusForbidden
		msg := "this area belongs to another role"
		switch d.Outcome {
		case access.RedirectToSignIn:
			status, msg = http.StatusUnauthorized, "authentication required"
		case access.RedirectToOnboarding:
			msg = "choose a role to continue"
		}
		c.AbortWithStatusJSON(status, gin.H{
			"error":    msg,
			"code":     strings.ToUpper(d.Outcome.String()),
			"redirect": d.Location,
		})
	}
}
