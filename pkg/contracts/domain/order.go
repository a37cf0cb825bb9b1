package domain

import (
	"time"
)

// Order represents a raw order row as loaded from orders.csv.
// Quantity and Amount are pointers because the raw data contains blank cells;
// a nil value means the cell was empty, not zero.
type Order struct {
	OrderID        string    `json:"order_id" csv:"order_id"`
	UserID         string    `json:"user_id" csv:"user_id"`
	Status         string    `json:"status" csv:"status"`
	Quantity       *float64  `json:"quantity" csv:"quantity"`
	Amount         *float64  `json:"amount" csv:"amount"`
	CreatedAt      time.Time `json:"created_at" csv:"created_at"`
	CreatedAtValid bool      `json:"created_at_valid"`
}

// StatusClean is the controlled vocabulary for normalized order statuses.
type StatusClean string

const (
	StatusPaid      StatusClean = "paid"
	StatusCompleted StatusClean = "completed"
	StatusRefund    StatusClean = "refund"
	StatusUnknown   StatusClean = "unknown"
)

// CleanedOrder is an Order after the cleaning stage: normalized status,
// winsorized amount, missing-value flags, outlier flag and calendar parts
// derived from the order timestamp.
type CleanedOrder struct {
	Order

	StatusClean     StatusClean `json:"status_clean"`
	AmountRaw       *float64    `json:"amount_raw"`
	AmountMissing   bool        `json:"amount_missing"`
	QuantityMissing bool        `json:"quantity_missing"`
	IsOutlier       bool        `json:"is_outlier"`

	// Calendar parts, zero when CreatedAtValid is false.
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Weekday string `json:"weekday"`
}

// IsRefund reports whether the cleaned status maps to a refund.
func (o CleanedOrder) IsRefund() bool {
	return o.StatusClean == StatusRefund
}
