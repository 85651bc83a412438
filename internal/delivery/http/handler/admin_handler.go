package handler

import (
	"net/http"

	"marketlive/internal/middleware"
	"marketlive/internal/usecase/admin"
	"marketlive/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	service *admin.Service
}

func NewAdminHandler(service *admin.Service) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	dashboard := router.Group("/admin")
	{
		dashboard.GET("/stats", h.GetDashboardStats)
		dashboard.GET("/bookings", h.ListAllBookings)
		dashboard.GET("/shipments", h.ListAllShipments)
		dashboard.GET("/customers", h.ListCustomers)
		dashboard.GET("/activity", h.GetRecentActivity)
		dashboard.GET("/deliveries/failed", h.ListFailedDeliveries)
		dashboard.POST("/integrations/freight-rates/test", h.TestFreightRateConnection)
	}
}

func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	result, err := h.service.DashboardStats(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Dashboard stats retrieved", result)
}

func (h *AdminHandler) ListAllBookings(c *gin.Context) {
	result, err := h.service.ListAllBookings(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Bookings retrieved successfully", result)
}

func (h *AdminHandler) ListAllShipments(c *gin.Context) {
	result, err := h.service.ListAllShipments(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Shipments retrieved successfully", result)
}

func (h *AdminHandler) ListCustomers(c *gin.Context) {
	result, err := h.service.ListCustomers(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Customers retrieved successfully", result)
}

func (h *AdminHandler) GetRecentActivity(c *gin.Context) {
	result, err := h.service.RecentActivity(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Recent activity retrieved", result)
}

func (h *AdminHandler) ListFailedDeliveries(c *gin.Context) {
	result, err := h.service.ListFailedDeliveries(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Failed deliveries retrieved", result)
}

// TestFreightRateConnection always answers 200; the probe outcome is in data.
func (h *AdminHandler) TestFreightRateConnection(c *gin.Context) {
	result, err := h.service.TestFreightRateConnection(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Freight rate connection tested", result)
}
