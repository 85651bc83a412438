package shipment

import "errors"

var (
	ErrShipmentNotFound        = errors.New("shipment not found")
	ErrShipmentAlreadyExists   = errors.New("shipment already exists")
	ErrInvalidStatus           = errors.New("invalid shipment status")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidRiskLevel        = errors.New("invalid risk level")
	ErrConcurrentUpdate        = errors.New("shipment was modified concurrently")
)
