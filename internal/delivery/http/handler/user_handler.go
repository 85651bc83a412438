package handler

import (
	"net/http"

	"marketlive/internal/middleware"
	"marketlive/internal/usecase/user"
	"marketlive/pkg/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service *user.Service
}

func NewUserHandler(service *user.Service) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.GET("/users/me", h.GetMe)
}

func (h *UserHandler) RegisterWebhook(router gin.IRoutes) {
	router.POST("/webhooks/identity", h.IdentityWebhook)
}

func (h *UserHandler) GetMe(c *gin.Context) {
	result, err := h.service.Me(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Profile retrieved successfully", result)
}

func (h *UserHandler) IdentityWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Unable to read request body")
		return
	}

	if err := h.service.HandleIdentityWebhook(c.Request.Context(), payload, c.Request.Header); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Webhook processed", gin.H{"received": true})
}
