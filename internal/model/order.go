package model

import "time"

// Order is a shipment request created at the end of the client dialogue.
// ToLocation and Description may be empty and Price zero when the client
// skipped those steps.
type Order struct {
	ID        int64  `db:"id"`
	Reference string `db:"reference"`
	ClientID  int64  `db:"client_id"`

	FromLocation string `db:"from_location"`
	ToLocation   string `db:"to_location"`
	Description  string `db:"description"`
	Price        int    `db:"price"`

	// IdempotencyKey dedupes order creation across message redelivery.
	IdempotencyKey string `db:"idempotency_key"`

	CreatedAt time.Time `db:"created_at"`
}
