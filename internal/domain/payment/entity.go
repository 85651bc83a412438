package payment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusFailed  = "failed"

	ChargeOneTime      = "one_time"
	ChargeSubscription = "subscription"

	// GuestPayer marks attempts made without an authenticated identity.
	GuestPayer = "TRANSIT_USER"
)

type Money struct {
	Amount          float64 `json:"amount"`
	AmountFormatted string  `json:"amount_formatted"`
	Currency        string  `json:"currency"`
	CurrencySymbol  string  `json:"currency_symbol"`
}

// NewMoney formats amount with the currency's symbol.
func NewMoney(amount float64, currency string) Money {
	symbol := CurrencySymbol(currency)
	return Money{
		Amount:          amount,
		AmountFormatted: fmt.Sprintf("%s%.2f", symbol, amount),
		Currency:        currency,
		CurrencySymbol:  symbol,
	}
}

func CurrencySymbol(currency string) string {
	switch currency {
	case "USD":
		return "$"
	case "GBP":
		return "£"
	default:
		return "€"
	}
}

type Payer struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	UserID    string `json:"user_id"`
}

type Source struct {
	CardType string `json:"card_type"`
	Last4    string `json:"last4"`
}

type Plan struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Period   string  `json:"period"`
	Interval int     `json:"interval"`
}

type Item struct {
	Amount      Money  `json:"amount"`
	Plan        Plan   `json:"plan"`
	Status      string `json:"status"`
	PeriodStart int64  `json:"period_start"`
	PeriodEnd   int64  `json:"period_end"`
}

type Totals struct {
	GrandTotal Money `json:"grand_total"`
	Subtotal   Money `json:"subtotal"`
	TaxTotal   Money `json:"tax_total"`
}

// Attempt is an invoice/payment row, either generated for a booking or
// reported by the payment processor.
type Attempt struct {
	ID            uuid.UUID
	PaymentID     string
	InvoiceID     string
	StatementID   string
	Status        string
	BillingDate   time.Time
	ChargeType    string
	Payer         Payer
	PaymentSource Source
	Items         []Item
	Totals        Totals
	UserID        *string
	BookingID     *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
