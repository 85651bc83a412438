package payment

import "time"

// Processor webhook event types handled by the payments use case.
const (
	EventCheckoutCompleted    = "checkout.session.completed"
	EventSubscriptionCreated  = "customer.subscription.created"
	EventSubscriptionUpdated  = "customer.subscription.updated"
	EventSubscriptionDeleted  = "customer.subscription.deleted"
	EventInvoicePaymentPaid   = "invoice.payment_succeeded"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

// WebhookEvent is a decoded processor event. The concrete types below are
// the closed set of variants; anything else arrives as IgnoredEvent.
type WebhookEvent interface {
	EventType() string
}

type CheckoutCompleted struct {
	SessionID      string
	CustomerID     string
	SubscriptionID string
	UserID         string
	Plan           string
	Email          string
}

type SubscriptionChanged struct {
	Type           string
	SubscriptionID string
	CustomerID     string
	Status         string
	UserID         string
	Plan           string
	PriceID        string
}

type InvoicePayment struct {
	Type       string
	InvoiceID  string
	Number     string
	CustomerID string
	Email      string
	Name       string
	Currency   string
	AmountPaid float64
	Subtotal   float64
	Total      float64
	PaidAt     time.Time
}

type IgnoredEvent struct {
	Type string
}

func (CheckoutCompleted) EventType() string     { return EventCheckoutCompleted }
func (e SubscriptionChanged) EventType() string { return e.Type }
func (e InvoicePayment) EventType() string      { return e.Type }
func (e IgnoredEvent) EventType() string        { return e.Type }

// Succeeded reports whether the invoice event is a successful payment.
func (e InvoicePayment) Succeeded() bool {
	return e.Type == EventInvoicePaymentPaid
}

// Deleted reports whether the subscription was cancelled outright.
func (e SubscriptionChanged) Deleted() bool {
	return e.Type == EventSubscriptionDeleted
}
