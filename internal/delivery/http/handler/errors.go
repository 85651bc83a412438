package handler

import (
	"errors"
	"net/http"

	domainBooking "marketlive/internal/domain/booking"
	domainCompliance "marketlive/internal/domain/compliance"
	domainDocument "marketlive/internal/domain/document"
	domainNotification "marketlive/internal/domain/notification"
	domainPayment "marketlive/internal/domain/payment"
	domainQuote "marketlive/internal/domain/quote"
	domainShipment "marketlive/internal/domain/shipment"
	domainUser "marketlive/internal/domain/user"
	"marketlive/internal/middleware"
	appErrors "marketlive/pkg/errors"
	"marketlive/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var notFound = []error{
	domainQuote.ErrQuoteNotFound,
	domainQuote.ErrCarrierOfferNotFound,
	domainBooking.ErrBookingNotFound,
	domainShipment.ErrShipmentNotFound,
	domainDocument.ErrDocumentNotFound,
	domainCompliance.ErrVerificationNotFound,
	domainPayment.ErrPaymentNotFound,
	domainUser.ErrUserNotFound,
	domainUser.ErrOrganizationNotFound,
	domainNotification.ErrNotificationNotFound,
}

var conflicts = []error{
	domainBooking.ErrBookingAlreadyExists,
	domainBooking.ErrConcurrentUpdate,
	domainShipment.ErrShipmentAlreadyExists,
	domainShipment.ErrConcurrentUpdate,
	domainPayment.ErrDuplicatePayment,
}

// statusFor maps an error to the HTTP status and client message.
func statusFor(err error) (int, string) {
	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case appErrors.CodeValidation, appErrors.CodeInvalidStatus:
			return http.StatusBadRequest, appErr.Message
		case appErrors.CodeUnauthorized:
			return http.StatusUnauthorized, appErr.Message
		case appErrors.CodeForbidden:
			return http.StatusForbidden, appErr.Message
		case appErrors.CodeNotFound:
			return http.StatusNotFound, appErr.Message
		case appErrors.CodeInvalidTransition, appErrors.CodeConflict:
			return http.StatusConflict, appErr.Message
		case appErrors.CodeExpired:
			return http.StatusGone, appErr.Message
		case appErrors.CodeVendor:
			return http.StatusBadGateway, appErr.Message
		}
	}

	for _, target := range notFound {
		if errors.Is(err, target) {
			return http.StatusNotFound, target.Error()
		}
	}
	for _, target := range conflicts {
		if errors.Is(err, target) {
			return http.StatusConflict, target.Error()
		}
	}

	switch {
	case errors.Is(err, appErrors.ErrUnauthorized):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, appErrors.ErrInsufficientPermissions):
		return http.StatusForbidden, "Insufficient permissions"
	case errors.Is(err, appErrors.ErrInvalidInput), errors.Is(err, appErrors.ErrInvalidSignature):
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "Internal server error"
}

func respondWithError(c *gin.Context, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		middleware.RequestLogger(c).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	utils.ErrorResponse(c, status, message)
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
