package quote

import "errors"

var (
	ErrQuoteNotFound        = errors.New("quote not found")
	ErrCarrierOfferNotFound = errors.New("carrier offer not found in quote")
	ErrOfferExpired         = errors.New("carrier offer has expired")
	ErrNoOffers             = errors.New("quote has no carrier offers")
)
