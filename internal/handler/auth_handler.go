package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chanhnguyen91/go-auth-boilerplate/internal/config"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/middleware"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/oauth"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/repository"
	"github.com/chanhnguyen91/go-auth-boilerplate/internal/service"
	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/apperr"
	"github.com/chanhnguyen91/go-auth-boilerplate/pkg/response"
)

const oauthStateCookie = "oauth_state"

type AuthHandler struct {
	authService service.AuthService
	users       repository.UserRepository
	google      oauth.GoogleProvider
	cfg         *config.Config
}

// NewAuthHandler sets up the routing dependencies for auth endpoints
func NewAuthHandler(authService service.AuthService, users repository.UserRepository, google oauth.GoogleProvider, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, users: users, google: google, cfg: cfg}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
		auth.GET("/google", h.GoogleAuth)
		auth.GET("/google/redirect", h.GoogleRedirect)
		auth.POST("/apple", h.AppleSignIn)
		auth.POST("/password/reset/request", h.RequestPasswordReset)
		auth.POST("/password/reset", h.ResetPassword)

		auth.GET("/me", middleware.Authenticate(h.users, h.cfg), h.Me)
	}
}

// Register handles POST /auth/register
// @Summary      Register a new user
// @Description  Creates a verified account with the streamer role and returns the sanitized user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Registration payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      409      {object}  response.Response
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.AbortWithError(c, apperr.Validation("errors.invalid_payload").WithCause(err))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, user)
}

// Login handles POST /auth/login
// @Summary      Login user
// @Description  Authenticates by email and password, returning an access/refresh token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login credentials"
// @Success      200      {object}  response.Response{data=service.TokensResponse}
// @Failure      401      {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.AbortWithError(c, apperr.Validation("errors.invalid_payload").WithCause(err))
		return
	}

	tokens, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}

	middleware.SetTokenCookies(c, h.cfg, tokens.AccessToken, tokens.RefreshToken)
	response.OK(c, http.StatusOK, tokens)
}

// Refresh handles POST /auth/refresh
// @Summary      Refresh tokens
// @Description  Rotates a refresh token, returning a new access/refresh pair; the presented token becomes invalid
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RefreshRequest  true  "Refresh token"
// @Success      200      {object}  response.Response{data=service.TokensResponse}
// @Failure      403      {object}  response.Response
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	// Try reading refresh_token from cookie first, fallback to body
	token, cookieErr := c.Cookie("refresh_token")
	if cookieErr != nil || token == "" {
		var req service.RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.AbortWithError(c, apperr.Validation("errors.invalid_payload").WithCause(err))
			return
		}
		token = req.RefreshToken
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}

	middleware.SetTokenCookies(c, h.cfg, tokens.AccessToken, tokens.RefreshToken)
	response.OK(c, http.StatusOK, tokens)
}

// Logout handles POST /auth/logout to clear auth cookies
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearTokenCookies(c, h.cfg)
	response.OK(c, http.StatusOK, "Logged out")
}

// GoogleAuth handles GET /auth/google
// @Summary      Start Google OAuth
// @Description  Redirects to Google's consent screen
// @Tags         auth
// @Success      302
// @Router       /auth/google [get]
func (h *AuthHandler) GoogleAuth(c *gin.Context) {
	state := uuid.NewString()
	c.SetCookie(oauthStateCookie, state, 600, "/", "", h.cfg.Env == "production", true)
	c.Redirect(http.StatusFound, h.google.AuthCodeURL(state))
}

// GoogleRedirect handles GET /auth/google/redirect
// @Summary      Google OAuth callback
// @Description  Exchanges the authorization code and logs the user in, creating the account on first login
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.TokensResponse}
// @Failure      401  {object}  response.Response
// @Router       /auth/google/redirect [get]
func (h *AuthHandler) GoogleRedirect(c *gin.Context) {
	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		response.AbortWithError(c, apperr.Unauthorized("errors.unauthorized", apperr.Detail{
			Path:    "state",
			Message: "OAuth state mismatch",
		}))
		return
	}

	identity, err := h.google.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		response.AbortWithError(c, apperr.Unauthorized("errors.unauthorized").WithCause(err))
		return
	}

	tokens, err := h.authService.ExternalLogin(c.Request.Context(), *identity)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}

	middleware.SetTokenCookies(c, h.cfg, tokens.AccessToken, tokens.RefreshToken)
	response.OK(c, http.StatusOK, tokens)
}

// AppleSignIn handles POST /auth/apple
// @Summary      Apple Sign-In
// @Description  Consumes an Apple identity token and logs the user in, creating the account on first login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AppleSignInRequest  true  "Apple identity token"
// @Success      200      {object}  response.Response{data=service.TokensResponse}
// @Failure      401      {object}  response.Response
// @Router       /auth/apple [post]
func (h *AuthHandler) AppleSignIn(c *gin.Context) {
	var req service.AppleSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.AbortWithError(c, apperr.Validation("errors.invalid_payload").WithCause(err))
		return
	}

	identity, err := oauth.DecodeAppleIdentity(req.IDToken, req.Name)
	if err != nil {
		response.AbortWithError(c, apperr.Unauthorized("errors.unauthorized").WithCause(err))
		return
	}

	tokens, err := h.authService.ExternalLogin(c.Request.Context(), *identity)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusOK, tokens)
}

// RequestPasswordReset handles POST /auth/password/reset/request
// @Summary      Request password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  response.Response{data=service.PasswordResetResponse}
// @Failure      404  {object}  response.Response
// @Router       /auth/password/reset/request [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.AbortWithError(c, apperr.Validation("errors.invalid_payload").WithCause(err))
		return
	}

	result, err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusOK, result)
}

// ResetPassword handles POST /auth/password/reset
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ResetPasswordRequest  true  "Reset payload"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /auth/password/reset [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req service.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.AbortWithError(c, apperr.Validation("errors.invalid_payload").WithCause(err))
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req); err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.OK(c, http.StatusOK, nil)
}

// Me handles GET /auth/me
// @Summary      Get current user
// @Description  Returns the authenticated user with their live permission set
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		response.AbortWithError(c, apperr.Unauthorized("errors.unauthorized"))
		return
	}

	roles := make([]string, 0, len(identity.User.Roles))
	for _, role := range identity.User.Roles {
		roles = append(roles, role.Name)
	}

	response.OK(c, http.StatusOK, gin.H{
		"id":          identity.User.ID,
		"email":       identity.User.Email,
		"name":        identity.User.Name,
		"is_verified": identity.User.IsVerified,
		"roles":       roles,
		"permissions": service.ResolvePermissions(identity.User),
	})
}
