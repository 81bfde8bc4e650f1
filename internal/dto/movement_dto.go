package dto

import "time"

// StockMovementResponse is one ledger row of the movement-history read.
type StockMovementResponse struct {
	ID          string    `json:"id"`
	TargetKind  string    `json:"target_kind"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"`
	StockBefore int       `json:"stock_before"`
	StockAfter  int       `json:"stock_after"`
	Reason      string    `json:"reason,omitempty"`
	OrderID     *string   `json:"order_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
