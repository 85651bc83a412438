package admin

import (
	"encoding/json"
	"time"

	"marketlive/internal/domain/audit"
	"marketlive/internal/domain/outbox"
	"marketlive/pkg/utils"
)

type Trends struct {
	Bookings  string `json:"bookings"`
	Shipments string `json:"shipments"`
	Customers string `json:"customers"`
	Approvals string `json:"approvals"`
}

type DashboardStatsResponse struct {
	TotalBookings    int64  `json:"totalBookings"`
	ActiveShipments  int64  `json:"activeShipments"`
	TotalCustomers   int64  `json:"totalCustomers"`
	PendingApprovals int64  `json:"pendingApprovals"`
	Trends           Trends `json:"trends"`
}

type ActivityResponse struct {
	Entries []*audit.Entry `json:"entries"`
	Total   int            `json:"total"`
}

// FailedDeliveryResponse is an outbox task that ran out of attempts.
type FailedDeliveryResponse struct {
	ID             string          `json:"id"`
	IdempotencyKey string          `json:"idempotencyKey"`
	Kind           outbox.Kind     `json:"kind"`
	AggregateType  string          `json:"aggregateType"`
	AggregateID    string          `json:"aggregateId"`
	Attempts       int             `json:"attempts"`
	LastError      string          `json:"lastError,omitempty"`
	Payload        json.RawMessage `json:"payload"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type FailedDeliveryListResponse struct {
	Deliveries []*FailedDeliveryResponse `json:"deliveries"`
	Total      int                       `json:"total"`
}

func ToFailedDeliveryListResponse(tasks []*outbox.Task) *FailedDeliveryListResponse {
	out := make([]*FailedDeliveryResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, &FailedDeliveryResponse{
			ID:             t.ID.String(),
			IdempotencyKey: t.IdempotencyKey,
			Kind:           t.Kind,
			AggregateType:  t.AggregateType,
			AggregateID:    t.AggregateID,
			Attempts:       t.Attempts,
			LastError:      utils.StringValue(t.LastError),
			Payload:        t.Payload,
			CreatedAt:      t.CreatedAt,
			UpdatedAt:      t.UpdatedAt,
		})
	}
	return &FailedDeliveryListResponse{Deliveries: out, Total: len(out)}
}
