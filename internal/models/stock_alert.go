package models

type AlertLevel string

const (
	AlertLow AlertLevel = "low"
	AlertOut AlertLevel = "out"
)

// StockAlert is raised when a stock change crosses below the low stock
// threshold or empties a product. Advisory only.
type StockAlert struct {
	EstablishmentID uint       `json:"establishment_id"`
	ProductID       uint       `json:"product_id"`
	ProductName     string     `json:"product_name"`
	Stock           int        `json:"stock"`
	Threshold       int        `json:"threshold"`
	Level           AlertLevel `json:"level"`
}

// CheckStockAlert compares stock before and after a change and returns the
// alert to raise, if any. Only crossings count, so a product that is already
// low does not alert again on every sale.
func CheckStockAlert(p Product, before, threshold int) (StockAlert, bool) {
	after := p.Stock
	alert := StockAlert{
		EstablishmentID: p.EstablishmentID,
		ProductID:       p.ID,
		ProductName:     p.Name,
		Stock:           after,
		Threshold:       threshold,
	}
	switch {
	case after == 0 && before > 0:
		alert.Level = AlertOut
		return alert, true
	case after < threshold && before >= threshold:
		alert.Level = AlertLow
		return alert, true
	}
	return StockAlert{}, false
}
