package order

import (
	"sort"

	"pos-backend/internal/models"
	"pos-backend/internal/store"
)

type Filter struct {
	Status *models.OrderStatus
	Paid   *bool
	Type   models.OrderType
}

func (f Filter) match(o models.Order) bool {
	if f.Status != nil && o.Status != *f.Status {
		return false
	}
	if f.Paid != nil && o.Paid != *f.Paid {
		return false
	}
	if f.Type != "" && o.Type != f.Type {
		return false
	}
	return true
}

// List returns the partition's orders matching f, newest first.
func List(p *store.Partition, f Filter) []models.Order {
	all := p.Orders()
	out := make([]models.Order, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if f.match(all[i]) {
			out = append(out, all[i])
		}
	}
	return out
}

// KitchenOrders are the orders still being worked on: Urgente first, then oldest first.
func KitchenOrders(p *store.Partition) []models.Order {
	out := make([]models.Order, 0)
	for _, o := range p.Orders() {
		if o.InKitchen() {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ui, uj := out[i].Priority == models.PriorityUrgente, out[j].Priority == models.PriorityUrgente
		if ui != uj {
			return ui
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// PendingPaymentOrders are delivered orders nobody has collected yet, oldest first.
func PendingPaymentOrders(p *store.Partition) []models.Order {
	out := make([]models.Order, 0)
	for _, o := range p.Orders() {
		if o.PendingPayment() {
			out = append(out, o)
		}
	}
	return out
}
