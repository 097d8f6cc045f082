package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"lab-checkout/internal/domain/access"
	"lab-checkout/internal/domain/user"
	"lab-checkout/internal/logger"
	"lab-checkout/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// HealthCheck reports whether one backing service is reachable.
type HealthCheck func(ctx context.Context) error

type HomeResponse struct {
	SignedIn bool           `json:"signed_in"`
	Name     string         `json:"name,omitempty"`
	Role     user.Role      `json:"role,omitempty"`
	Nav      []access.Route `json:"nav"`
}

type HomeHandler struct {
	checks map[string]HealthCheck
}

func NewHomeHandler(checks map[string]HealthCheck) *HomeHandler {
	return &HomeHandler{checks: checks}
}

func (h *HomeHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/home", h.Home)
}

// Home greets the caller and lists the pages they may open.
func (h *HomeHandler) Home(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	resp := HomeResponse{Nav: access.NavFor(viewer)}
	if resp.Nav == nil {
		resp.Nav = []access.Route{}
	}
	if viewer != nil {
		resp.SignedIn = true
		resp.Name = viewer.Name
		resp.Role = viewer.Role
	}
	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *HomeHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			logger.Warn("Health check failed", zap.String("check", name), zap.Error(err))
			results[name] = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "healthy"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status": overall,
		"checks": results,
	})
}
