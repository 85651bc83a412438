package compliance

import "errors"

var (
	ErrVerificationNotFound = errors.New("kyc verification not found")
	ErrNotOwner             = errors.New("kyc verification belongs to another user")
	ErrAlreadySubmitted     = errors.New("kyc verification already submitted")
)
