package notify

import (
	"fmt"
	"time"

	"marketlive/internal/domain/outbox"
)

// Message is a side effect to be recorded in the outbox.
type Message struct {
	Key           string
	Kind          outbox.Kind
	AggregateType string
	AggregateID   string
	Payload       interface{}
}

type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type InAppPayload struct {
	Recipient string `json:"recipient"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	Priority  string `json:"priority"`
	ActionURL string `json:"actionUrl,omitempty"`
}

// WorkflowPayload is published to the workflow topic when a shipment changes status.
type WorkflowPayload struct {
	Event          string    `json:"event"`
	ShipmentID     string    `json:"shipmentId"`
	TrackingNumber string    `json:"trackingNumber,omitempty"`
	PreviousStatus string    `json:"previousStatus,omitempty"`
	Status         string    `json:"status"`
	Revision       int       `json:"revision"`
	OutOfBand      bool      `json:"outOfBand,omitempty"`
	UserID         string    `json:"userId,omitempty"`
	OrgID          string    `json:"orgId,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Key builds "<aggregate>:<id>:<transition>:<kind>".
func Key(aggregateType, aggregateID, transition string, kind outbox.Kind) string {
	return fmt.Sprintf("%s:%s:%s:%s", aggregateType, aggregateID, transition, kind)
}

func Email(aggregateType, aggregateID, transition string, p EmailPayload) Message {
	return Message{
		Key:           Key(aggregateType, aggregateID, transition, outbox.KindEmail),
		Kind:          outbox.KindEmail,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Payload:       p,
	}
}

func InApp(aggregateType, aggregateID, transition string, p InAppPayload) Message {
	return Message{
		Key:           Key(aggregateType, aggregateID, transition, outbox.KindInApp),
		Kind:          outbox.KindInApp,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Payload:       p,
	}
}

func Workflow(aggregateType, aggregateID, transition string, p WorkflowPayload) Message {
	return Message{
		Key:           Key(aggregateType, aggregateID, transition, outbox.KindWorkflow),
		Kind:          outbox.KindWorkflow,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Payload:       p,
	}
}
