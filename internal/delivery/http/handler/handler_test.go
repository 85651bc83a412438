package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domainBooking "marketlive/internal/domain/booking"
	domainPayment "marketlive/internal/domain/payment"
	domainQuote "marketlive/internal/domain/quote"
	quoteMocks "marketlive/internal/domain/quote/mocks"
	"marketlive/internal/identity"
	"marketlive/internal/infrastructure/stripe"
	"marketlive/internal/middleware"
	"marketlive/internal/usecase/payment"
	"marketlive/internal/usecase/quote"
	appErrors "marketlive/pkg/errors"
	"marketlive/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func withIdentity(id *identity.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id != nil {
			c.Set(middleware.IdentityKey, id)
		}
		c.Next()
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var resp utils.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", appErrors.Validation("Invalid input", appErrors.ErrInvalidInput), http.StatusBadRequest},
		{"unauthorized", appErrors.NewAppError(appErrors.CodeUnauthorized, "Authentication required", nil), http.StatusUnauthorized},
		{"forbidden", appErrors.NewAppError(appErrors.CodeForbidden, "Admin access required", nil), http.StatusForbidden},
		{"transition", appErrors.NewAppError(appErrors.CodeInvalidTransition, "bad move", domainBooking.ErrInvalidStatusTransition), http.StatusConflict},
		{"expired", appErrors.NewAppError(appErrors.CodeExpired, "Offer expired", domainQuote.ErrOfferExpired), http.StatusGone},
		{"vendor", appErrors.NewAppError(appErrors.CodeVendor, "Stripe failed", errors.New("502")), http.StatusBadGateway},
		{"wrapped not found", fmt.Errorf("load: %w", domainBooking.ErrBookingNotFound), http.StatusNotFound},
		{"quote not found", domainQuote.ErrQuoteNotFound, http.StatusNotFound},
		{"concurrent update", domainBooking.ErrConcurrentUpdate, http.StatusConflict},
		{"bare sentinel", appErrors.ErrInsufficientPermissions, http.StatusForbidden},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := statusFor(tt.err)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestStatusFor_HidesInternalErrors(t *testing.T) {
	_, msg := statusFor(errors.New("pq: password authentication failed"))
	assert.Equal(t, "Internal server error", msg)
}

func newQuoteRouter(t *testing.T, id *identity.Identity) (*gin.Engine, *quoteMocks.MockRepository) {
	ctrl := gomock.NewController(t)
	repo := quoteMocks.NewMockRepository(ctrl)
	h := NewQuoteHandler(quote.NewService(repo, nil, nil))

	r := gin.New()
	group := r.Group("/api/v1", withIdentity(id))
	h.RegisterRoutes(group, group)
	return r, repo
}

func TestQuoteHandler_PreviewPrice(t *testing.T) {
	r, _ := newQuoteRouter(t, nil)

	body := `{"origin":"Shanghai","destination":"Los Angeles","serviceType":"sea","weight":"1000"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes/price", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "sea", data["serviceType"])
	assert.NotEmpty(t, data["breakdown"])
}

func TestQuoteHandler_Errors(t *testing.T) {
	r, repo := newQuoteRouter(t, &identity.Identity{Subject: "user_1", Role: identity.RoleClient})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		setup  func()
		status int
	}{
		{"malformed body", http.MethodPost, "/api/v1/quotes/price", `{`, nil, http.StatusBadRequest},
		{"missing fields", http.MethodPost, "/api/v1/quotes/price", `{"origin":"Shanghai"}`, nil, http.StatusBadRequest},
		{
			name:   "unknown quote",
			method: http.MethodGet,
			path:   "/api/v1/quotes/QT-1",
			setup: func() {
				repo.EXPECT().GetByQuoteID(gomock.Any(), "QT-1").Return(nil, domainQuote.ErrQuoteNotFound)
			},
			status: http.StatusNotFound,
		},
		{"list all as client", http.MethodGet, "/api/v1/quotes", "", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

type stubProcessor struct {
	signature string
	err       error
}

func (p *stubProcessor) CreateCheckoutSession(context.Context, stripe.CheckoutParams) (*stripe.CheckoutSession, error) {
	return nil, errors.New("not used")
}

func (p *stubProcessor) ParseWebhook(_ []byte, signature string) (domainPayment.WebhookEvent, error) {
	p.signature = signature
	if p.err != nil {
		return nil, p.err
	}
	return domainPayment.IgnoredEvent{Type: "charge.refunded"}, nil
}

func TestPaymentHandler_StripeWebhook(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"accepted", nil, http.StatusOK},
		{"bad signature", fmt.Errorf("%w: mismatch", appErrors.ErrInvalidSignature), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := &stubProcessor{err: tt.err}
			h := NewPaymentHandler(payment.NewService(nil, nil, nil, nil, processor, nil))
			r := gin.New()
			h.RegisterWebhook(r)

			req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{"type":"charge.refunded"}`))
			req.Header.Set(stripeSignatureHeader, "t=1,v1=abc")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "t=1,v1=abc", processor.signature)
		})
	}
}
