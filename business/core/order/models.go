package order

import "time"

// Order is the local summary of an order created on chain. It is an audit
// record and is not kept in sync with the contract state.
type Order struct {
	ID               string
	ProcessorAddress string
	Quantity         int64
	TxHash           string
	DateCreated      time.Time
}

// NewOrder contains the information recorded after a successful createOrder.
type NewOrder struct {
	ProcessorAddress string
	Quantity         int64
	TxHash           string
}
