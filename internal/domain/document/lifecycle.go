package document

import (
	"fmt"

	appErrors "marketlive/pkg/errors"
)

var validTransitions = map[Status][]Status{
	StatusDraft:        {StatusIssued, StatusSent, StatusArchived},
	StatusIssued:       {StatusSent, StatusCompleted, StatusAcknowledged, StatusArchived},
	StatusSent:         {StatusIssued, StatusCompleted, StatusAcknowledged, StatusArchived},
	StatusCompleted:    {StatusArchived},
	StatusAcknowledged: {StatusArchived},
	StatusArchived:     {},
}

func ParseType(raw string) (Type, error) {
	switch t := Type(raw); t {
	case TypeBillOfLading, TypeAirWaybill, TypeCommercialInvoice:
		return t, nil
	}
	return "", appErrors.NewAppError(appErrors.CodeValidation, fmt.Sprintf("Unknown document type: %s", raw), ErrInvalidType)
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := validTransitions[s]; !ok {
		return "", appErrors.NewAppError(appErrors.CodeInvalidStatus, fmt.Sprintf("Unknown document status: %s", raw), ErrInvalidStatus)
	}
	return s, nil
}

// ValidateStatusTransition allows same-status writes so data-only updates pass.
func ValidateStatusTransition(current, next Status) error {
	if current == next {
		return nil
	}
	for _, s := range validTransitions[current] {
		if s == next {
			return nil
		}
	}
	return appErrors.NewAppError(
		appErrors.CodeInvalidTransition,
		fmt.Sprintf("Cannot transition document from %s to %s", current, next),
		ErrInvalidStatusTransition,
	)
}

// StatusForEnvelope maps an e-signature envelope status onto the document status.
// ok is false when the envelope status does not move the document.
func StatusForEnvelope(envelopeStatus string) (Status, bool) {
	switch envelopeStatus {
	case "sent", "delivered":
		return StatusIssued, true
	case "completed", "signed":
		return StatusCompleted, true
	}
	return "", false
}
