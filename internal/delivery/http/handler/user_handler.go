package handler

import (
	"net/http"

	"lab-checkout/internal/usecase/user"
	"lab-checkout/pkg/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service *user.Service
	manager *user.Manager
}

func NewUserHandler(service *user.Service, manager *user.Manager) *UserHandler {
	return &UserHandler{service: service, manager: manager}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	account := router.Group("/account")
	{
		account.GET("", h.GetAccount)
		account.POST("/password", h.ChangePassword)
	}

	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/edit/:id", h.GetForEdit)
		users.PUT("/edit/:id", h.UpdateUser)
	}
}

func (h *UserHandler) GetAccount(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	account, err := h.manager.GetAccount(c.Request.Context(), viewer)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", account)
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	var req user.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), viewer, &req); err != nil {
		RespondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Password changed successfully", nil)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	users, err := h.manager.ListUsers(c.Request.Context(), viewer)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", users)
}

func (h *UserHandler) GetForEdit(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	resp, err := h.manager.GetForEdit(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	var req user.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.manager.UpdateUser(c.Request.Context(), viewer, c.Param("id"), &req)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "User updated", resp)
}
