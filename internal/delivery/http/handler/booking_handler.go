package handler

import (
	"net/http"

	"marketlive/internal/middleware"
	"marketlive/internal/usecase/booking"
	"marketlive/pkg/utils"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service *booking.Service
}

func NewBookingHandler(service *booking.Service) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) RegisterRoutes(public, protected, admin *gin.RouterGroup) {
	bookings := public.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("/:bookingId", h.GetBooking)
	}

	mine := protected.Group("/bookings")
	{
		mine.GET("", h.ListBookings)
		mine.GET("/my", h.ListMyBookings)
		mine.PATCH("/:bookingId/status", h.UpdateStatus)
	}

	approvals := admin.Group("/bookings")
	{
		approvals.GET("/pending", h.ListPendingApprovals)
		approvals.POST("/:bookingId/approve", h.ApproveBooking)
		approvals.POST("/:bookingId/reject", h.RejectBooking)
	}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req booking.CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.Create(c.Request.Context(), middleware.GetIdentity(c), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Booking created successfully", result)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Booking retrieved successfully", result)
}

func (h *BookingHandler) ListBookings(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Bookings retrieved successfully", result)
}

func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	result, err := h.service.ListMy(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Bookings retrieved successfully", result)
}

func (h *BookingHandler) ListPendingApprovals(c *gin.Context) {
	result, err := h.service.ListPendingApprovals(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Pending bookings retrieved successfully", result)
}

func (h *BookingHandler) ApproveBooking(c *gin.Context) {
	var req booking.ApproveBookingRequest
	// the body is optional
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	result, err := h.service.Approve(c.Request.Context(), middleware.GetIdentity(c), c.Param("bookingId"), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Booking approved successfully", result)
}

func (h *BookingHandler) RejectBooking(c *gin.Context) {
	var req booking.RejectBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.Reject(c.Request.Context(), middleware.GetIdentity(c), c.Param("bookingId"), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Booking rejected", result)
}

func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req booking.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.UpdateStatus(c.Request.Context(), middleware.GetIdentity(c), c.Param("bookingId"), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Booking status updated", result)
}
