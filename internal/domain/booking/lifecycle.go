package booking

import (
	"fmt"
	"strings"

	appErrors "marketlive/pkg/errors"
)

var validTransitions = map[Status][]Status{
	StatusPending: {
		StatusApproved,
		StatusRejected,
		StatusConfirmed,
		StatusCancelled,
	},
	StatusApproved: {
		StatusConfirmed,
		StatusRejected,
		StatusCancelled,
	},
	StatusConfirmed: {
		StatusInTransit,
		StatusCancelled,
	},
	StatusInTransit: {
		StatusDelivered,
		StatusCancelled,
	},
	StatusRejected:  {},
	StatusDelivered: {},
	StatusCancelled: {},
}

// ParseStatus maps a client-supplied string onto the closed status set.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	s = Status(strings.NewReplacer(" ", "_", "-", "_").Replace(string(s)))
	if _, ok := validTransitions[s]; !ok {
		return "", appErrors.NewAppError(
			appErrors.CodeInvalidStatus,
			fmt.Sprintf("Unknown booking status: %s", raw),
			ErrInvalidStatus,
		)
	}
	return s, nil
}

// IsAdminGated reports whether entering s requires an admin decision.
func IsAdminGated(s Status) bool {
	return s == StatusApproved || s == StatusRejected
}

func IsTerminal(s Status) bool {
	allowed, ok := validTransitions[s]
	return ok && len(allowed) == 0
}

// ValidateStatusTransition checks the edge current -> next against the table.
func ValidateStatusTransition(current, next Status) error {
	allowed, exists := validTransitions[current]
	if !exists {
		return appErrors.NewAppError(
			appErrors.CodeInvalidStatus,
			fmt.Sprintf("Unknown current status: %s", current),
			ErrInvalidStatus,
		)
	}

	for _, s := range allowed {
		if s == next {
			return nil
		}
	}

	return appErrors.NewAppError(
		appErrors.CodeInvalidTransition,
		fmt.Sprintf("Cannot transition booking from %s to %s", current, next),
		ErrInvalidStatusTransition,
	)
}

func GetAllowedTransitions(current Status) []Status {
	return validTransitions[current]
}
