package handler

import (
	"net/http"

	"marketlive/internal/middleware"
	"marketlive/internal/usecase/document"
	"marketlive/pkg/utils"

	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	service *document.Service
}

func NewDocumentHandler(service *document.Service) *DocumentHandler {
	return &DocumentHandler{service: service}
}

func (h *DocumentHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/documents/shared/:token", h.GetSharedDocument)

	documents := protected.Group("/documents")
	{
		documents.POST("", h.CreateDocument)
		documents.GET("", h.ListDocuments)
		documents.GET("/my", h.ListMyDocuments)
		documents.GET("/:documentId", h.GetDocument)
		documents.PATCH("/:documentId", h.UpdateDocument)
		documents.PUT("/:documentId/envelope", h.SetEnvelope)
		documents.POST("/:documentId/signature", h.SendForSignature)
		documents.POST("/:documentId/share", h.GenerateShareLink)
	}
}

func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	var req document.CreateDocumentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.Create(c.Request.Context(), middleware.GetIdentity(c), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Document created successfully", result)
}

func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	var req document.ListDocumentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	result, err := h.service.List(c.Request.Context(), middleware.GetIdentity(c), req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Documents retrieved successfully", result)
}

func (h *DocumentHandler) ListMyDocuments(c *gin.Context) {
	var req document.ListDocumentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	result, err := h.service.ListMy(c.Request.Context(), middleware.GetIdentity(c), req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Documents retrieved successfully", result)
}

func (h *DocumentHandler) GetDocument(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context(), middleware.GetIdentity(c), c.Param("documentId"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Document retrieved successfully", result)
}

func (h *DocumentHandler) UpdateDocument(c *gin.Context) {
	var req document.UpdateDocumentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.Update(c.Request.Context(), middleware.GetIdentity(c), c.Param("documentId"), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Document updated successfully", result)
}

func (h *DocumentHandler) SetEnvelope(c *gin.Context) {
	var req document.SetEnvelopeRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.SetEnvelope(c.Request.Context(), middleware.GetIdentity(c), c.Param("documentId"), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Envelope recorded", result)
}

func (h *DocumentHandler) SendForSignature(c *gin.Context) {
	var req document.SendForSignatureRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.SendForSignature(c.Request.Context(), middleware.GetIdentity(c), c.Param("documentId"), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Document sent for signature", result)
}

func (h *DocumentHandler) GenerateShareLink(c *gin.Context) {
	result, err := h.service.GenerateShareLink(c.Request.Context(), middleware.GetIdentity(c), c.Param("documentId"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Share link generated", result)
}

func (h *DocumentHandler) GetSharedDocument(c *gin.Context) {
	result, err := h.service.GetShared(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Document retrieved successfully", result)
}
