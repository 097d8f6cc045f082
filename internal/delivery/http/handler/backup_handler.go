package handler

import (
	"fmt"
	"net/http"

	"lab-checkout/internal/usecase/backup"
	"lab-checkout/pkg/utils"

	"github.com/gin-gonic/gin"
)

type BackupHandler struct {
	service *backup.Service
}

func NewBackupHandler(service *backup.Service) *BackupHandler {
	return &BackupHandler{service: service}
}

func (h *BackupHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/backup", h.ListCollections)
	router.GET("/backup/:collection", h.Download)
}

func (h *BackupHandler) ListCollections(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	collections, err := h.service.Collections(c.Request.Context(), viewer)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", collections)
}

// Download sends one collection as a JSON attachment.
func (h *BackupHandler) Download(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	collection := c.Param("collection")
	data, err := h.service.Export(c.Request.Context(), viewer, collection)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.json"`, collection))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}
