package models

import "time"

type TransactionType string

const (
	TransactionIn     TransactionType = "In"
	TransactionOut    TransactionType = "Out"
	TransactionAdjust TransactionType = "Adjust" // physical count: stock becomes Quantity
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionIn, TransactionOut, TransactionAdjust:
		return true
	}
	return false
}

// InventoryTransaction is an append-only ledger row. It is never modified after creation.
type InventoryTransaction struct {
	ID              uint            `json:"id"`
	EstablishmentID uint            `json:"establishment_id"`
	ProductID       uint            `json:"product_id"`
	Type            TransactionType `json:"type"`
	Quantity        int             `json:"quantity"`
	Delta           int             `json:"delta"` // stock_after - stock_before, after clamping
	StockBefore     int             `json:"stock_before"`
	StockAfter      int             `json:"stock_after"`
	Reason          string          `json:"reason"`
	OrderID         string          `json:"order_id,omitempty"` // order whose sale or cancel moved the stock
	Date            time.Time       `json:"date"`
}

// Clamped reports whether an Out transaction could not be applied in full.
func (t InventoryTransaction) Clamped() bool {
	return t.Type == TransactionOut && -t.Delta < t.Quantity
}
