package models

// All lists every model for schema migration.
func All() []interface{} {
	return []interface{}{
		&UserModel{},
		&OrganizationModel{},
		&QuoteModel{},
		&BookingModel{},
		&ShipmentModel{},
		&TrackingEventModel{},
		&DocumentModel{},
		&KycVerificationModel{},
		&PaymentAttemptModel{},
		&NotificationModel{},
		&AuditLogModel{},
		&OutboxTaskModel{},
	}
}
