package handler

import (
	"net/http"

	"marketlive/internal/middleware"
	"marketlive/internal/usecase/compliance"
	"marketlive/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ComplianceHandler struct {
	service *compliance.Service
}

func NewComplianceHandler(service *compliance.Service) *ComplianceHandler {
	return &ComplianceHandler{service: service}
}

func (h *ComplianceHandler) RegisterRoutes(protected *gin.RouterGroup) {
	kyc := protected.Group("/kyc")
	{
		kyc.GET("", h.GetKycStatus)
		kyc.POST("", h.StartKyc)
		kyc.PUT("/:kycId/details", h.UpdateKycDetails)
		kyc.POST("/:kycId/documents", h.AddKycDocument)
		kyc.POST("/:kycId/submit", h.SubmitKyc)
	}
}

// GetKycStatus returns null data when the caller has not started verification.
func (h *ComplianceHandler) GetKycStatus(c *gin.Context) {
	result, err := h.service.GetKycStatus(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "KYC status retrieved", result)
}

func (h *ComplianceHandler) StartKyc(c *gin.Context) {
	result, err := h.service.StartKyc(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "KYC verification started", result)
}

func (h *ComplianceHandler) UpdateKycDetails(c *gin.Context) {
	var req compliance.UpdateKycDetailsRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.UpdateKycDetails(c.Request.Context(), middleware.GetIdentity(c), c.Param("kycId"), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "KYC details saved", result)
}

func (h *ComplianceHandler) AddKycDocument(c *gin.Context) {
	var req compliance.AddKycDocumentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.AddKycDocument(c.Request.Context(), middleware.GetIdentity(c), c.Param("kycId"), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "KYC document added", result)
}

func (h *ComplianceHandler) SubmitKyc(c *gin.Context) {
	result, err := h.service.SubmitKyc(c.Request.Context(), middleware.GetIdentity(c), c.Param("kycId"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "KYC verification submitted", result)
}
