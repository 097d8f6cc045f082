package handler

import (
	"net/http"

	"lab-checkout/internal/config"
	"lab-checkout/internal/middleware"
	"lab-checkout/internal/usecase/user"
	"lab-checkout/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service *user.Service
	session config.SessionConfig
}

func NewAuthHandler(service *user.Service, session config.SessionConfig) *AuthHandler {
	return &AuthHandler{service: service, session: session}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/password-reset", h.ForgotPassword)
		authGroup.POST("/password-reset/confirm", h.ResetPassword)
	}
}

// RegisterSessionRoutes holds the routes that are not rate limited as
// credential guesses.
func (h *AuthHandler) RegisterSessionRoutes(router *gin.RouterGroup) {
	router.POST("/auth/logout", h.Logout)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	h.setSessionCookie(c, authResponse.Token)
	utils.SuccessResponse(c, http.StatusCreated, "Account created", authResponse)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Redirect == "" {
		req.Redirect = c.Query("redirect")
	}

	authResponse, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	h.setSessionCookie(c, authResponse.Token)
	utils.SuccessResponse(c, http.StatusOK, "Signed in", authResponse)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), middleware.CurrentPrincipal(c)); err != nil {
		RespondWithError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.session.CookieName, "", -1, "/", "", h.session.CookieSecure, true)
	utils.SuccessResponse(c, http.StatusOK, "Signed out", nil)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req user.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), &req); err != nil {
		RespondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "If the email exists, a reset link has been sent", nil)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req user.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), &req); err != nil {
		RespondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Password reset successfully", nil)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.session.CookieName, token, int(h.session.TTL().Seconds()), "/", "", h.session.CookieSecure, true)
}
