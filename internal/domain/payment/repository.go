package payment

import "context"

type Filter struct {
	UserID string
	Status string
	Limit  int
}

type Repository interface {
	// Create stores a; an existing PaymentID yields ErrDuplicatePayment.
	Create(ctx context.Context, a *Attempt) error
	GetByPaymentID(ctx context.Context, paymentID string) (*Attempt, error)
	UpdateStatus(ctx context.Context, paymentID, status string) error
	List(ctx context.Context, filter Filter) ([]*Attempt, error)
}
