package shipment

import (
	"fmt"
	"strings"

	appErrors "marketlive/pkg/errors"
)

// Expected carrier progressions. Feeds may skip or reorder; those moves are
// applied but reported as out-of-band.
var validTransitions = map[Status][]Status{
	StatusCreated: {
		StatusBooked, StatusPickedUp, StatusInTransit, StatusException, StatusCancelled,
	},
	StatusBooked: {
		StatusPickedUp, StatusInTransit, StatusException, StatusCancelled,
	},
	StatusPickedUp: {
		StatusInTransit, StatusCustoms, StatusException, StatusCancelled,
	},
	StatusInTransit: {
		StatusCustoms, StatusOutForDelivery, StatusDelivered, StatusException, StatusCancelled,
	},
	StatusCustoms: {
		StatusInTransit, StatusOutForDelivery, StatusException, StatusCancelled,
	},
	StatusOutForDelivery: {
		StatusDelivered, StatusException,
	},
	StatusException: {
		StatusInTransit, StatusCustoms, StatusOutForDelivery, StatusDelivered, StatusCancelled,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

var statusAliases = map[string]Status{
	"pending":      StatusCreated,
	"new":          StatusCreated,
	"pickup":       StatusPickedUp,
	"transit":      StatusInTransit,
	"in_customs":   StatusCustoms,
	"customs_hold": StatusCustoms,
	"delayed":      StatusException,
	"on_hold":      StatusException,
	"failed":       StatusException,
	"canceled":     StatusCancelled,
}

// NormalizeStatus maps a carrier status string ("In Transit", "out-for-delivery")
// onto the closed status set.
func NormalizeStatus(raw string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)

	if _, ok := validTransitions[Status(key)]; ok {
		return Status(key), nil
	}
	if s, ok := statusAliases[key]; ok {
		return s, nil
	}

	return "", appErrors.NewAppError(
		appErrors.CodeInvalidStatus,
		fmt.Sprintf("Unknown shipment status: %s", raw),
		ErrInvalidStatus,
	)
}

// IsExpectedTransition reports whether current -> next is a listed progression.
func IsExpectedTransition(current, next Status) bool {
	for _, s := range validTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

func GetAllowedTransitions(current Status) []Status {
	return validTransitions[current]
}

// IsActive reports whether the shipment is still moving.
func IsActive(s Status) bool {
	switch s {
	case StatusPickedUp, StatusInTransit, StatusCustoms, StatusOutForDelivery:
		return true
	}
	return false
}

func ValidRiskLevel(level string) bool {
	switch level {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}
