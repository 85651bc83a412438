package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainQuote "marketlive/internal/domain/quote"
	appErrors "marketlive/pkg/errors"
)

// Linkage is the quote and offer a booking request points at.
type Linkage struct {
	Quote   *domainQuote.Quote
	Offer   *domainQuote.CarrierOffer
	Expired bool
}

// ValidateLinkage checks that quoteID exists and carries carrierID among its
// offers. An expired offer is reported through Linkage.Expired unless
// enforceExpiry is set, in which case it is an error.
func ValidateLinkage(
	ctx context.Context,
	quotes domainQuote.Repository,
	quoteID, carrierID string,
	now time.Time,
	enforceExpiry bool,
) (*Linkage, error) {
	q, err := quotes.GetByQuoteID(ctx, quoteID)
	if err != nil {
		if errors.Is(err, domainQuote.ErrQuoteNotFound) {
			return nil, appErrors.NewAppError(
				appErrors.CodeNotFound,
				"Invalid quoteId: quote not found",
				domainQuote.ErrQuoteNotFound,
			)
		}
		return nil, err
	}

	offer, ok := q.FindOffer(carrierID)
	if !ok {
		return nil, appErrors.Validation(
			"Invalid carrierQuoteId for this quote",
			domainQuote.ErrCarrierOfferNotFound,
		)
	}

	expired := offer.Expired(now)
	if expired && enforceExpiry {
		return nil, appErrors.NewAppError(
			appErrors.CodeExpired,
			fmt.Sprintf("Carrier offer %s expired at %s", carrierID, offer.ValidUntil),
			domainQuote.ErrOfferExpired,
		)
	}

	return &Linkage{Quote: q, Offer: offer, Expired: expired}, nil
}
