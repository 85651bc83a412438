package ingestion

import (
	"encoding/json"
	"time"

	shipmentUC "marketlive/internal/usecase/shipment"
)

// CarrierUpdate is one message from a carrier's tracking feed, published on
// carriers/<carrierId>/tracking.
type CarrierUpdate struct {
	CarrierID  string                      `json:"-"`
	ShipmentID string                      `json:"shipmentId"`
	Tracking   shipmentUC.TrackingSnapshot `json:"tracking"`
	SentAt     *time.Time                  `json:"sentAt,omitempty"`
	ReceivedAt time.Time                   `json:"-"`
}

// ToUpsertRequest fills the carrier from the topic when the payload omits it.
func (u *CarrierUpdate) ToUpsertRequest() *shipmentUC.UpsertShipmentRequest {
	tracking := u.Tracking
	if tracking.Carrier == "" {
		tracking.Carrier = u.CarrierID
	}
	return &shipmentUC.UpsertShipmentRequest{
		ShipmentID: u.ShipmentID,
		Tracking:   tracking,
	}
}

// ParseCarrierUpdate decodes and validates a feed message.
func ParseCarrierUpdate(topic string, payload []byte) (*CarrierUpdate, error) {
	carrierID, err := CarrierFromTopic(topic)
	if err != nil {
		return nil, err
	}

	var u CarrierUpdate
	if err := json.Unmarshal(payload, &u); err != nil {
		return nil, &ValidationError{Field: "payload", Message: "payload must be a JSON object: " + err.Error()}
	}
	u.CarrierID = carrierID
	u.ReceivedAt = time.Now()

	if err := ValidateCarrierUpdate(&u); err != nil {
		return nil, err
	}
	return &u, nil
}
