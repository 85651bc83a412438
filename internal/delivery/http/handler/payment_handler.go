package handler

import (
	"net/http"

	"marketlive/internal/middleware"
	"marketlive/internal/usecase/payment"
	"marketlive/pkg/utils"

	"github.com/gin-gonic/gin"
)

const stripeSignatureHeader = "Stripe-Signature"

type PaymentHandler struct {
	service *payment.Service
}

func NewPaymentHandler(service *payment.Service) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) RegisterRoutes(protected, admin *gin.RouterGroup) {
	payments := protected.Group("/payments")
	{
		payments.POST("/checkout", h.CreateCheckoutSession)
		payments.GET("/my", h.ListMyPayments)
	}

	admin.GET("/payments", h.ListPayments)
}

// RegisterWebhook mounts the processor callback outside the API group.
func (h *PaymentHandler) RegisterWebhook(router gin.IRoutes) {
	router.POST("/webhooks/stripe", h.StripeWebhook)
}

func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	var req payment.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.CreateCheckoutSession(c.Request.Context(), middleware.GetIdentity(c), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Checkout session created", result)
}

func (h *PaymentHandler) ListMyPayments(c *gin.Context) {
	result, err := h.service.ListMy(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Payments retrieved successfully", result)
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	result, err := h.service.ListAll(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Payments retrieved successfully", result)
}

// StripeWebhook acknowledges with 2xx once the event is applied. Any other
// status makes the processor redeliver.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Unable to read request body")
		return
	}

	if err := h.service.HandleStripeWebhook(c.Request.Context(), payload, c.GetHeader(stripeSignatureHeader)); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Webhook processed", gin.H{"received": true})
}
