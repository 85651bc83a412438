package quote

import "context"

type Filter struct {
	UserID string
	OrgID  string
	Limit  int
}

type Repository interface {
	Create(ctx context.Context, q *Quote) error
	GetByQuoteID(ctx context.Context, quoteID string) (*Quote, error)
	List(ctx context.Context, filter Filter) ([]*Quote, error)
}
