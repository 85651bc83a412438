package booking

import "errors"

var (
	ErrBookingNotFound         = errors.New("booking not found")
	ErrBookingAlreadyExists    = errors.New("booking already exists")
	ErrInvalidStatus           = errors.New("invalid booking status")
	ErrInvalidStatusTransition = errors.New("invalid booking status transition")
	ErrApprovalRequired        = errors.New("status can only be set through approval")
	ErrConcurrentUpdate        = errors.New("booking was modified concurrently")
)
