package v1

import (
	"context"
	"crypto/subtle"
	"net/http"
	"net/url"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/access"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/identity"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/identity/oidc"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/service"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type AuthService interface {
	SignUp(ctx context.Context, email, password, fullName string) (*identity.PendingIdentity, error)
	VerifySignUp(ctx context.Context, pendingID, code string) (*service.SignInResult, error)
	SignIn(ctx context.Context, email, password string) (*service.SignInResult, error)
	SignInExternal(ctx context.Context, ext identity.ExternalIdentity) (*service.SignInResult, error)
	Refresh(ctx context.Context, refreshToken string) (*identity.Session, error)
	SignOut(ctx context.Context, info identity.SessionInfo) error
}

type RoleAssigner interface {
	AssignRole(ctx context.Context, caller *domain.Claims, identityID uuid.UUID, role domain.Role) (*service.RoleAssignment, error)
}

type OAuthProviders interface {
	Get(name string) (oidc.OAuthProvider, error)
}

const (
	oauthStateCookie    = "oauth_state"
	oauthVerifierCookie = "oauth_verifier"
	oauthCookieTTL      = 10 * time.Minute
)

type AuthHandler struct {
	auth   AuthService
	roles  RoleAssigner
	oauth  OAuthProviders // nil when no provider is configured
	cookie session.CookieOptions
	log    *zap.Logger
}

func NewAuthHandler(auth AuthService, roles RoleAssigner, oauth OAuthProviders, cookie session.CookieOptions, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, roles: roles, oauth: oauth, cookie: cookie, log: log}
}

type signUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required,max=200"`
}

type verifyRequest struct {
	PendingID string `json:"pending_id" binding:"required"`
	Code      string `json:"code" binding:"required,len=6,numeric"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type assignRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type signInResponse struct {
	Identity     *domain.Identity  `json:"identity"`
	Tokens       *domain.TokenPair `json:"tokens"`
	Role         domain.Role       `json:"role"`
	RedirectPath string            `json:"redirect_path"`
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if !bindJSON(c, &req) {
		return
	}
	pending, err := h.auth.SignUp(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusAccepted, APIResponse[*identity.PendingIdentity]{
		Data:    pending,
		Message: "check your email for a verification code",
	})
}

func (h *AuthHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.auth.VerifySignUp(c.Request.Context(), req.PendingID, req.Code)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	h.startSession(c, res.Session)
	respondOK(c, signInResponse{
		Identity:     res.Session.Identity,
		Tokens:       res.Session.Tokens,
		Role:         res.Role,
		RedirectPath: res.RedirectPath,
	})
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	h.startSession(c, res.Session)
	respondOK(c, signInResponse{
		Identity:     res.Session.Identity,
		Tokens:       res.Session.Tokens,
		Role:         res.Role,
		RedirectPath: res.RedirectPath,
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	h.startSession(c, sess)
	respondOK(c, sess.Tokens)
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	info := middleware.SessionFrom(c)
	if info == nil {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := h.auth.SignOut(c.Request.Context(), *info); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	session.ClearCookie(c.Writer, h.cookie)
	c.Status(http.StatusNoContent)
}

// Me reports who the caller is and where they belong.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := caller(c)
	redirect := access.OnboardingPath
	if claims.Role.IsValid() {
		redirect = claims.Role.DashboardPath()
	}
	respondOK(c, gin.H{
		"identity_id":   claims.IdentityID,
		"email":         claims.Email,
		"role":          claims.Role,
		"redirect_path": redirect,
	})
}

// AssignRole is the onboarding step: the caller picks their own role.
func (h *AuthHandler) AssignRole(c *gin.Context) {
	var req assignRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	claims := caller(c)
	res, err := h.roles.AssignRole(c.Request.Context(), claims, claims.IdentityID, role)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, res)
}

// RouteCheck lets a frontend ask where a path should take the caller.
func (h *AuthHandler) RouteCheck(c *gin.Context) {
	path := c.Query("path")
	if path == "" || path[0] != '/' {
		respondError(c, http.StatusBadRequest, "path must be an absolute path")
		return
	}
	claims := caller(c)
	var role domain.Role
	if claims != nil {
		role = claims.Role
	}
	d := access.Decide(claims != nil, role, path)
	respondOK(c, gin.H{"outcome": d.Outcome.String(), "location": d.Location})
}

// OAuthStart redirects to the provider with a fresh state and PKCE
// challenge, both remembered in short-lived cookies.
func (h *AuthHandler) OAuthStart(c *gin.Context) {
	p, ok := h.provider(c)
	if !ok {
		return
	}
	state, err := session.GenerateID()
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	verifier := oauth2.GenerateVerifier()

	h.setTempCookie(c, oauthStateCookie, state)
	h.setTempCookie(c, oauthVerifierCookie, verifier)
	c.Redirect(http.StatusFound, p.AuthCodeURL(state, oauth2.S256ChallengeFromVerifier(verifier)))
}

func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	p, ok := h.provider(c)
	if !ok {
		return
	}

	state, _ := c.Cookie(oauthStateCookie)
	verifier, _ := c.Cookie(oauthVerifierCookie)
	h.clearTempCookie(c, oauthStateCookie)
	h.clearTempCookie(c, oauthVerifierCookie)

	got := c.Query("state")
	if state == "" || verifier == "" || subtle.ConstantTimeCompare([]byte(state), []byte(got)) != 1 {
		respondError(c, http.StatusBadRequest, "invalid oauth state")
		return
	}
	if e := c.Query("error"); e != "" {
		c.Redirect(http.StatusFound, access.SignInPath+"?error="+url.QueryEscape(e))
		return
	}
	code := c.Query("code")
	if code == "" {
		respondError(c, http.StatusBadRequest, "missing authorization code")
		return
	}

	ext, err := p.ExchangeCode(c.Request.Context(), code, verifier)
	if err != nil {
		h.log.Warn("oauth exchange failed", zap.String("provider", p.Name()), zap.Error(err))
		respondError(c, http.StatusUnauthorized, "sign-in with "+p.Name()+" failed")
		return
	}

	res, err := h.auth.SignInExternal(c.Request.Context(), *ext)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	h.startSession(c, res.Session)
	c.Redirect(http.StatusFound, res.RedirectPath)
}

func (h *AuthHandler) provider(c *gin.Context) (oidc.OAuthProvider, bool) {
	if h.oauth == nil {
		respondError(c, http.StatusNotFound, "oauth sign-in is not enabled")
		return nil, false
	}
	p, err := h.oauth.Get(c.Param("provider"))
	if err != nil {
		respondError(c, http.StatusNotFound, err.Error())
		return nil, false
	}
	return p, true
}

func (h *AuthHandler) startSession(c *gin.Context, sess *identity.Session) {
	session.SetCookie(c.Writer, sess.ID, sess.ExpiresAt, h.cookie)
}

func (h *AuthHandler) setTempCookie(c *gin.Context, name, value string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(oauthCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearTempCookie(c *gin.Context, name string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
