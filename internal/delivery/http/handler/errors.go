package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"lab-checkout/internal/domain/access"
	"lab-checkout/internal/domain/device"
	"lab-checkout/internal/domain/user"
	"lab-checkout/internal/logger"
	"lab-checkout/internal/middleware"
	"lab-checkout/internal/usecase/backup"
	appErrors "lab-checkout/pkg/errors"
	"lab-checkout/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	apiPrefix = "/api/v1"

	unavailableMessage = "Unable to process your request.  Please try again later."
	corruptMessage     = "This record is damaged and cannot be displayed.  Please contact an administrator."
)

// RespondWithError renders err as the matching status and envelope.
func RespondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var appErr *appErrors.AppError
	switch {
	case errors.Is(err, context.Canceled):
		logger.Debug("Request cancelled by client",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
		)
		c.Abort()
	case errors.Is(err, access.ErrNotSignedIn):
		utils.AbortWithResponse(c, http.StatusUnauthorized, utils.Response{
			Message:  "Please sign in to continue.",
			Redirect: access.LoginRedirect(pagePath(c)),
		})
	case isDenied(err):
		denied, _ := access.IsDenied(err)
		utils.AbortWithResponse(c, http.StatusForbidden, utils.Response{
			Message:      denied.Message(),
			RequiredTier: denied.Required.String(),
		})
	case errors.Is(err, device.ErrDeviceNotFound),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, backup.ErrUnknownCollection):
		utils.ErrorResponse(c, http.StatusNotFound, notFoundMessage(err))
	case errors.Is(err, appErrors.ErrInvalidCredentials):
		utils.ErrorResponse(c, http.StatusUnauthorized, "Incorrect email or password.")
	case errors.Is(err, appErrors.ErrInvalidToken):
		utils.ErrorResponse(c, http.StatusBadRequest, "This reset link is invalid or has expired.")
	case errors.Is(err, appErrors.ErrPasswordMismatch):
		utils.ErrorResponse(c, http.StatusBadRequest, "Your current password is incorrect.")
	case device.IsCorrupt(err), errors.Is(err, user.ErrInvalidUserRole):
		logger.Error("Corrupt record",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, corruptMessage)
	case errors.As(err, &appErr):
		utils.ErrorResponse(c, appErrorStatus(appErr.Code), appErr.Message)
	default:
		logger.Error("Request failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusServiceUnavailable, unavailableMessage)
	}
}

func isDenied(err error) bool {
	_, ok := access.IsDenied(err)
	return ok
}

func appErrorStatus(code string) int {
	switch code {
	case appErrors.CodePrecondition, "ACCOUNT_EXISTS":
		return http.StatusConflict
	case appErrors.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		return "Computer not found."
	case errors.Is(err, user.ErrUserNotFound):
		return "User not found."
	default:
		return "Not found."
	}
}

// pagePath is the page the caller asked for, without the API prefix.
func pagePath(c *gin.Context) string {
	p := strings.TrimPrefix(c.Request.URL.RequestURI(), apiPrefix)
	if p == "" {
		return "/"
	}
	return p
}

// currentViewer reports a failed identity lookup and returns false.
func currentViewer(c *gin.Context) (*user.Viewer, bool) {
	viewer, err := middleware.CurrentViewer(c)
	if err != nil {
		RespondWithError(c, err)
		return nil, false
	}
	return viewer, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
