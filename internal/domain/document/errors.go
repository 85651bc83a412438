package document

import "errors"

var (
	ErrDocumentNotFound        = errors.New("document not found")
	ErrInvalidType             = errors.New("invalid document type")
	ErrInvalidStatus           = errors.New("invalid document status")
	ErrInvalidStatusTransition = errors.New("invalid document status transition")
	ErrNotOwner                = errors.New("document belongs to another user")
)
