package handler

import (
	"net/http"

	domainQuote "marketlive/internal/domain/quote"
	"marketlive/internal/middleware"
	"marketlive/internal/usecase/quote"
	"marketlive/pkg/utils"

	"github.com/gin-gonic/gin"
)

type QuoteHandler struct {
	service *quote.Service
}

func NewQuoteHandler(service *quote.Service) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// RegisterRoutes mounts the quote endpoints. public carries optional auth,
// protected requires a token.
func (h *QuoteHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	quotes := public.Group("/quotes")
	{
		quotes.POST("", h.CreateQuote)
		quotes.POST("/instant", h.CreateInstantQuote)
		quotes.POST("/price", h.PreviewPrice)
		quotes.GET("/:quoteId", h.GetQuote)
	}

	mine := protected.Group("/quotes")
	{
		mine.GET("", h.ListQuotes)
		mine.GET("/my", h.ListMyQuotes)
	}
}

func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var req quote.CreateQuoteRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.Create(c.Request.Context(), middleware.GetIdentity(c), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Quote saved successfully", result)
}

func (h *QuoteHandler) CreateInstantQuote(c *gin.Context) {
	var req quote.InstantQuoteRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.CreateInstantQuoteAndBooking(c.Request.Context(), middleware.GetIdentity(c), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Instant quote and booking created", result)
}

func (h *QuoteHandler) PreviewPrice(c *gin.Context) {
	var req domainQuote.Request
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.Price(&req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Price calculated", result)
}

func (h *QuoteHandler) GetQuote(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context(), c.Param("quoteId"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Quote retrieved successfully", result)
}

func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Quotes retrieved successfully", result)
}

func (h *QuoteHandler) ListMyQuotes(c *gin.Context) {
	result, err := h.service.ListMy(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Quotes retrieved successfully", result)
}
