package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"marketlive/internal/config"
	"marketlive/internal/domain/payment"
	"marketlive/internal/infrastructure/resilience"
	appErrors "marketlive/pkg/errors"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/webhook"
)

type CheckoutParams struct {
	PriceID       string
	Plan          string
	UserID        string
	CustomerEmail string
	CustomerID    string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type Client struct {
	webhookSecret string
	appURL        string
	breaker       *resilience.Breaker
}

func NewClient(cfg config.StripeConfig, appURL string, breaker *resilience.Breaker) *Client {
	stripe.Key = cfg.SecretKey
	return &Client{
		webhookSecret: cfg.WebhookSecret,
		appURL:        strings.TrimRight(appURL, "/"),
		breaker:       breaker,
	}
}

// CreateCheckoutSession opens a hosted subscription checkout for one price.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	metadata := map[string]string{
		"userId": p.UserID,
		"plan":   p.Plan,
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(p.PriceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:        stripe.String(c.appURL + "/dashboard/payment-gated?success=true"),
		CancelURL:         stripe.String(c.appURL + "/pricing?canceled=true"),
		ClientReferenceID: stripe.String(p.UserID),
		Metadata:          metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx
	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	} else if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}

	var sess *stripe.CheckoutSession
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		sess, err = session.New(params)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event
// into one of the payment.WebhookEvent variants.
func (c *Client) ParseWebhook(payload []byte, signature string) (payment.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrInvalidSignature, err)
	}
	return DecodeEvent(event)
}

// DecodeEvent maps a verified event onto the closed variant set.
func DecodeEvent(event stripe.Event) (payment.WebhookEvent, error) {
	eventType := string(event.Type)

	switch eventType {
	case payment.EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, appErrors.Validation("malformed checkout session", err)
		}
		out := payment.CheckoutCompleted{
			SessionID: sess.ID,
			UserID:    sess.Metadata["userId"],
			Plan:      sess.Metadata["plan"],
		}
		if out.UserID == "" {
			out.UserID = sess.ClientReferenceID
		}
		if sess.Customer != nil {
			out.CustomerID = sess.Customer.ID
		}
		if sess.Subscription != nil {
			out.SubscriptionID = sess.Subscription.ID
		}
		if sess.CustomerDetails != nil {
			out.Email = sess.CustomerDetails.Email
		}
		return out, nil

	case payment.EventSubscriptionCreated, payment.EventSubscriptionUpdated, payment.EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, appErrors.Validation("malformed subscription", err)
		}
		out := payment.SubscriptionChanged{
			Type:           eventType,
			SubscriptionID: sub.ID,
			Status:         string(sub.Status),
			UserID:         sub.Metadata["userId"],
			Plan:           sub.Metadata["plan"],
		}
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
		if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
			out.PriceID = sub.Items.Data[0].Price.ID
		}
		return out, nil

	case payment.EventInvoicePaymentPaid, payment.EventInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, appErrors.Validation("malformed invoice", err)
		}
		out := payment.InvoicePayment{
			Type:       eventType,
			InvoiceID:  inv.ID,
			Number:     inv.Number,
			Email:      inv.CustomerEmail,
			Name:       inv.CustomerName,
			Currency:   strings.ToUpper(string(inv.Currency)),
			AmountPaid: fromCents(inv.AmountPaid),
			Subtotal:   fromCents(inv.Subtotal),
			Total:      fromCents(inv.Total),
			PaidAt:     time.Unix(event.Created, 0).UTC(),
		}
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
		if inv.StatusTransitions != nil && inv.StatusTransitions.PaidAt > 0 {
			out.PaidAt = time.Unix(inv.StatusTransitions.PaidAt, 0).UTC()
		}
		return out, nil
	}

	return payment.IgnoredEvent{Type: eventType}, nil
}

func fromCents(v int64) float64 {
	return float64(v) / 100
}
