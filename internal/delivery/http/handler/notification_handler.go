package handler

import (
	"net/http"

	"marketlive/internal/middleware"
	"marketlive/internal/usecase/notification"
	"marketlive/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LiveStream upgrades a request into a notification stream for recipient.
type LiveStream interface {
	Serve(w http.ResponseWriter, r *http.Request, recipient string) error
}

type NotificationHandler struct {
	service *notification.Service
	live    LiveStream
}

func NewNotificationHandler(service *notification.Service, live LiveStream) *NotificationHandler {
	return &NotificationHandler{service: service, live: live}
}

func (h *NotificationHandler) RegisterRoutes(protected *gin.RouterGroup) {
	notifications := protected.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.POST("/:notificationId/read", h.MarkRead)
	}
}

// RegisterStream mounts the websocket endpoint. router must run the auth middleware.
func (h *NotificationHandler) RegisterStream(router gin.IRoutes) {
	router.GET("/ws/notifications", h.Stream)
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	var req notification.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	result, err := h.service.List(c.Request.Context(), middleware.GetIdentity(c), req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Notifications retrieved successfully", result)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.service.MarkRead(c.Request.Context(), middleware.GetIdentity(c), c.Param("notificationId")); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Notification marked as read", nil)
}

func (h *NotificationHandler) Stream(c *gin.Context) {
	id := middleware.GetIdentity(c)
	if !id.Authenticated() {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	// Serve writes its own handshake error response
	if err := h.live.Serve(c.Writer, c.Request, id.Subject); err != nil {
		middleware.RequestLogger(c).Warn("Websocket upgrade failed",
			zap.String("subject", id.Subject),
			zap.Error(err),
		)
	}
}
