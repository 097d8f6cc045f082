package handler

import (
	"net/http"

	domainDevice "lab-checkout/internal/domain/device"
	"lab-checkout/internal/usecase/device"
	"lab-checkout/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ComputerHandler struct {
	service *device.Service
}

func NewComputerHandler(service *device.Service) *ComputerHandler {
	return &ComputerHandler{service: service}
}

func (h *ComputerHandler) RegisterRoutes(router *gin.RouterGroup) {
	computers := router.Group("/computers")
	{
		computers.GET("", h.ListComputers)
		computers.GET("/details/:id", h.GetDetails)
		computers.GET("/checkout/:id", h.GetCheckout)
		computers.POST("/checkout/:id", h.Checkout)
		computers.POST("/checkin/:id", h.CheckIn)
		computers.GET("/extend/:id", h.GetExtend)
		computers.POST("/extend/:id", h.Extend)
		computers.GET("/reactivate/:id", h.GetMakeAvailable)
		computers.POST("/reactivate/:id", h.MakeAvailable)
		computers.GET("/edit/:id", h.GetForEdit)
		computers.PUT("/edit/:id", h.Save)
	}
}

func (h *ComputerHandler) ListComputers(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	list, err := h.service.ListComputers(c.Request.Context(), viewer)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", list)
}

func (h *ComputerHandler) GetDetails(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	details, err := h.service.GetDetails(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", details)
}

func (h *ComputerHandler) GetCheckout(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	view, err := h.service.GetCheckout(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", view)
}

func (h *ComputerHandler) Checkout(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	var req device.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	computer, err := h.service.Checkout(c.Request.Context(), viewer, c.Param("id"), &req)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Computer checked out", computer)
}

func (h *ComputerHandler) CheckIn(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	computer, err := h.service.CheckIn(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Computer checked in", computer)
}

func (h *ComputerHandler) GetExtend(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	view, err := h.service.GetExtend(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", view)
}

func (h *ComputerHandler) Extend(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	var req device.ExtendRequest
	if !bindJSON(c, &req) {
		return
	}

	computer, err := h.service.Extend(c.Request.Context(), viewer, c.Param("id"), &req)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Reservation extended", computer)
}

func (h *ComputerHandler) GetMakeAvailable(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	view, err := h.service.GetMakeAvailable(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", view)
}

func (h *ComputerHandler) MakeAvailable(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	// An empty body keeps the current credentials.
	var req device.MakeAvailableRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	computer, err := h.service.MakeAvailable(c.Request.Context(), viewer, c.Param("id"), &req)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Computer is available", computer)
}

func (h *ComputerHandler) GetForEdit(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	view, err := h.service.GetForEdit(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", view)
}

func (h *ComputerHandler) Save(c *gin.Context) {
	viewer, ok := currentViewer(c)
	if !ok {
		return
	}

	var form device.ComputerForm
	if !bindJSON(c, &form) {
		return
	}

	id := c.Param("id")
	computer, err := h.service.Save(c.Request.Context(), viewer, id, &form)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	if id == domainDevice.NewDeviceKeyword {
		utils.SuccessResponse(c, http.StatusCreated, "Computer created", computer)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Computer saved", computer)
}
