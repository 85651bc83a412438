package payment

import "errors"

var (
	ErrPaymentNotFound      = errors.New("payment attempt not found")
	ErrDuplicatePayment     = errors.New("payment attempt already recorded")
	ErrCheckoutNotAvailable = errors.New("checkout is not configured")
)
