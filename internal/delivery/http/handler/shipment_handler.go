package handler

import (
	"net/http"

	"marketlive/internal/middleware"
	"marketlive/internal/usecase/shipment"
	"marketlive/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ShipmentHandler struct {
	service *shipment.Service
}

func NewShipmentHandler(service *shipment.Service) *ShipmentHandler {
	return &ShipmentHandler{service: service}
}

func (h *ShipmentHandler) RegisterRoutes(public, protected, admin *gin.RouterGroup) {
	shipments := public.Group("/shipments")
	{
		shipments.GET("/track/:trackingNumber", h.TrackShipment)
		shipments.GET("/:shipmentId", h.GetShipment)
	}

	mine := protected.Group("/shipments")
	{
		mine.GET("", h.ListShipments)
		mine.POST("", h.UpsertShipment)
	}

	flags := admin.Group("/shipments")
	{
		flags.POST("/:shipmentId/flag", h.FlagShipment)
		flags.DELETE("/:shipmentId/flag", h.ClearFlag)
	}
}

// UpsertShipment stores a tracking snapshot. The response reports whether the
// shipment was created and whether its status changed.
func (h *ShipmentHandler) UpsertShipment(c *gin.Context) {
	var req shipment.UpsertShipmentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.Upsert(c.Request.Context(), middleware.GetIdentity(c), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	utils.SuccessResponse(c, status, "Shipment saved successfully", result)
}

func (h *ShipmentHandler) GetShipment(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context(), c.Param("shipmentId"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Shipment retrieved successfully", result)
}

func (h *ShipmentHandler) TrackShipment(c *gin.Context) {
	result, err := h.service.Track(c.Request.Context(), c.Param("trackingNumber"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Shipment retrieved successfully", result)
}

func (h *ShipmentHandler) ListShipments(c *gin.Context) {
	var req shipment.ListShipmentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	result, err := h.service.List(c.Request.Context(), middleware.GetIdentity(c), req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Shipments retrieved successfully", result)
}

func (h *ShipmentHandler) FlagShipment(c *gin.Context) {
	var req shipment.FlagShipmentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.Flag(c.Request.Context(), middleware.GetIdentity(c), c.Param("shipmentId"), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Shipment flagged", result)
}

func (h *ShipmentHandler) ClearFlag(c *gin.Context) {
	result, err := h.service.ClearFlag(c.Request.Context(), middleware.GetIdentity(c), c.Param("shipmentId"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Shipment flag cleared", result)
}
