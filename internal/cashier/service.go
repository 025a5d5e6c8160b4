package cashier

import (
	"context"
	"time"

	"pos-backend/internal/models"
	"pos-backend/internal/order"

	"github.com/shopspring/decimal"
)

type MethodTotal struct {
	Method models.PaymentMethod `json:"method"`
	Orders int                  `json:"orders"`
	Total  decimal.Decimal      `json:"total"`
}

// DaySummary is what the till took on one calendar day, by payment method.
type DaySummary struct {
	Date         string          `json:"date"`
	Items        []MethodTotal   `json:"items"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
	PaidOrders   int             `json:"paid_orders"`
	PendingCount int             `json:"pending_count"`
	PendingTotal decimal.Decimal `json:"pending_total"`
}

var methods = []models.PaymentMethod{models.PaymentCash, models.PaymentCard, models.PaymentPIX}

// Till is the cashier's view of the order machine.
type Till struct {
	orders *order.Machine
}

func NewTill(orders *order.Machine) *Till {
	return &Till{orders: orders}
}

func (t *Till) PendingPayments(establishmentID uint) ([]models.Order, error) {
	return t.orders.PendingPaymentOrders(establishmentID)
}

func (t *Till) MarkPaid(ctx context.Context, establishmentID uint, id string, method models.PaymentMethod) (models.Order, error) {
	return t.orders.MarkPaid(ctx, establishmentID, id, method)
}

// Summary totals the orders paid on day, in day's location. Pending figures
// are the current queue, whatever day those orders were placed.
func (t *Till) Summary(establishmentID uint, day time.Time) (DaySummary, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	paid := true
	orders, err := t.orders.List(establishmentID, order.Filter{Paid: &paid})
	if err != nil {
		return DaySummary{}, err
	}
	pending, err := t.orders.PendingPaymentOrders(establishmentID)
	if err != nil {
		return DaySummary{}, err
	}

	byMethod := make(map[models.PaymentMethod]*MethodTotal, len(methods))
	for _, m := range methods {
		byMethod[m] = &MethodTotal{Method: m, Total: decimal.Zero}
	}

	sum := DaySummary{
		Date:         start.Format("2006-01-02"),
		GrandTotal:   decimal.Zero,
		PendingTotal: decimal.Zero,
	}
	for _, o := range orders {
		if o.PaidAt == nil || o.PaymentMethod == nil {
			continue
		}
		if o.PaidAt.Before(start) || !o.PaidAt.Before(end) {
			continue
		}
		mt := byMethod[*o.PaymentMethod]
		mt.Orders++
		mt.Total = mt.Total.Add(o.Total)
		sum.GrandTotal = sum.GrandTotal.Add(o.Total)
		sum.PaidOrders++
	}
	for _, o := range pending {
		sum.PendingCount++
		sum.PendingTotal = sum.PendingTotal.Add(o.Total)
	}

	sum.Items = make([]MethodTotal, 0, len(methods))
	for _, m := range methods {
		sum.Items = append(sum.Items, *byMethod[m])
	}
	return sum, nil
}
