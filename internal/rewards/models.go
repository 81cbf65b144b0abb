package rewards

import "time"

// Scan verdicts. The real product-authentication pipeline lives elsewhere;
// this service only records and aggregates simulated outcomes.
const (
	ScanResultAuthentic   = "authentic"
	ScanResultCounterfeit = "counterfeit"
	ScanResultUnknown     = "unknown"
)

// Transaction kinds.
const (
	TxnKindEarn   = "earn"
	TxnKindRedeem = "redeem"
)

// ScanEvent is one QR scan of a product tag.
type ScanEvent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ProductCode string    `json:"product_code"`
	ProductName string    `json:"product_name,omitempty"`
	Result      string    `json:"result"`
	Points      int       `json:"points"`
	CreatedAt   time.Time `json:"created_at"`
}

// Transaction is one reward-point movement. Entries are append-only; the
// wallet balance is always derived, never stored.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Kind        string    `json:"kind"`
	Points      int       `json:"points"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// WalletSummary aggregates a user's reward activity.
type WalletSummary struct {
	UserID        string `json:"user_id"`
	Balance       int    `json:"balance"`
	TotalEarned   int    `json:"total_earned"`
	TotalRedeemed int    `json:"total_redeemed"`
	ItemsRecycled int    `json:"items_recycled"`
}

// Product is a catalog entry a scan resolves against.
type Product struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}
