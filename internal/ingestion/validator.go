package ingestion

import (
	"fmt"
	"strings"
)

const (
	topicPrefix = "carriers"
	topicSuffix = "tracking"

	maxShipmentID = 100
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s]: %s", e.Field, e.Message)
}

// CarrierFromTopic extracts the carrier id from carriers/<carrierId>/tracking.
func CarrierFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != topicPrefix || parts[2] != topicSuffix || parts[1] == "" {
		return "", &ValidationError{Field: "topic", Message: "topic must be carriers/<carrierId>/tracking"}
	}
	return parts[1], nil
}

// ValidateCarrierUpdate checks what the feed can get wrong before the message
// reaches the shipment use case, which validates the snapshot itself.
func ValidateCarrierUpdate(u *CarrierUpdate) error {
	u.ShipmentID = strings.TrimSpace(u.ShipmentID)
	if u.ShipmentID == "" {
		return &ValidationError{Field: "shipmentId", Message: "shipmentId is required"}
	}
	if len(u.ShipmentID) > maxShipmentID {
		return &ValidationError{Field: "shipmentId", Message: "shipmentId is too long"}
	}
	if strings.TrimSpace(u.Tracking.Status) == "" {
		return &ValidationError{Field: "tracking.status", Message: "status is required"}
	}
	return nil
}
