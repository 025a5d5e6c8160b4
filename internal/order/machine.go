package order

import (
	"strings"

	"pos-backend/internal/apperror"
	"pos-backend/internal/models"
	"pos-backend/internal/store"

	"github.com/google/uuid"
)

// Draft is what a new order is built from.
type Draft struct {
	Context models.OrderContext
	Items   []models.OrderItem
}

// ValidateItems checks the order lines. Prices must already be resolved.
func ValidateItems(items []models.OrderItem) error {
	if len(items) == 0 {
		return apperror.Validation("an order needs at least one item")
	}
	for i, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			return apperror.Validationf("item %d: name is required", i)
		}
		if it.Quantity < 1 {
			return apperror.Validationf("item %d (%s): quantity must be at least 1", i, it.Name)
		}
		if !it.Price.IsPositive() {
			return apperror.Validationf("item %d (%s): price must be greater than zero", i, it.Name)
		}
	}
	return nil
}

func validateContext(ctx models.OrderContext) error {
	if ctx == nil {
		return apperror.Validation("order type is required")
	}
	return ctx.Validate()
}

func lookup(p *store.Partition, id string) (models.Order, error) {
	canonical, ok := models.ParseOrderID(id)
	if !ok {
		return models.Order{}, apperror.NotFoundf("order %s not found", id)
	}
	o, ok := p.Order(canonical)
	if !ok {
		return models.Order{}, apperror.NotFoundf("order %s not found", canonical)
	}
	return o, nil
}

// prepareItems assigns ids to new lines. Lines whose id matches one in prev
// keep its prepared flag; all other lines start unprepared.
func prepareItems(items []models.OrderItem, prev []models.OrderItem) []models.OrderItem {
	prepared := make(map[string]bool, len(prev))
	for _, it := range prev {
		prepared[it.ID] = it.Prepared
	}

	out := make([]models.OrderItem, len(items))
	seen := make(map[string]bool, len(items))
	for i, it := range items {
		it.Name = strings.TrimSpace(it.Name)
		it.Notes = strings.TrimSpace(it.Notes)
		if it.ID == "" || seen[it.ID] {
			it.ID = uuid.NewString()
		}
		seen[it.ID] = true
		it.Prepared = prepared[it.ID]
		out[i] = it
	}
	return out
}

// Create stores a new order under the next sequence number of the partition.
func Create(p *store.Partition, d Draft) (models.Order, error) {
	if err := validateContext(d.Context); err != nil {
		return models.Order{}, err
	}
	if err := ValidateItems(d.Items); err != nil {
		return models.Order{}, err
	}

	now := p.Now()
	seq := p.NextOrderSeq()
	o := models.Order{
		ID:        models.FormatOrderID(seq),
		Seq:       seq,
		Type:      d.Context.Type(),
		Context:   d.Context,
		Customer:  d.Context.Summary(),
		Items:     prepareItems(d.Items, nil),
		Status:    models.StatusAguardando,
		Priority:  models.PriorityNormal,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.Total = o.ComputeTotal()
	p.PutOrder(o)
	o.EstablishmentID = p.EstablishmentID()
	return o, nil
}

// UpdateStatus moves an order forward. Steps may be skipped, going back is
// rejected and setting the current status again changes nothing.
func UpdateStatus(p *store.Partition, id string, next models.OrderStatus) (o models.Order, changed bool, err error) {
	if o, err = lookup(p, id); err != nil {
		return o, false, err
	}
	if next == models.StatusCancelado {
		return o, false, apperror.Validation("orders are canceled through the cancel operation")
	}
	nextRank, ok := next.Rank()
	if !ok {
		return o, false, apperror.Validationf("unknown status %q", next)
	}
	if o.Status == next {
		return o, false, nil
	}
	if o.Status == models.StatusCancelado {
		return o, false, apperror.Conflictf("order %s is canceled", o.ID)
	}
	curRank, _ := o.Status.Rank()
	if nextRank < curRank {
		return o, false, apperror.Validationf("order %s cannot go back from %s to %s", o.ID, o.Status, next)
	}

	o.Status = next
	o.UpdatedAt = p.Now()
	p.PutOrder(o)
	return o, true, nil
}

// ToggleItemPrepared flips one line's prepared flag. The order status is not touched.
func ToggleItemPrepared(p *store.Partition, id string, index int) (models.Order, error) {
	o, err := lookup(p, id)
	if err != nil {
		return o, err
	}
	if index < 0 || index >= len(o.Items) {
		return o, apperror.IndexOutOfRangef("order %s has no item %d", o.ID, index)
	}
	if o.Status == models.StatusCancelado {
		return o, apperror.Conflictf("order %s is canceled", o.ID)
	}

	o.Items[index].Prepared = !o.Items[index].Prepared
	o.UpdatedAt = p.Now()
	p.PutOrder(o)
	return o, nil
}

// MarkPaid collects a delivered order. It succeeds once; a second attempt is a
// Conflict so two cashiers cannot take the same payment.
func MarkPaid(p *store.Partition, id string, method models.PaymentMethod) (models.Order, error) {
	if !method.Valid() {
		return models.Order{}, apperror.Validationf("unknown payment method %q", method)
	}
	o, err := lookup(p, id)
	if err != nil {
		return o, err
	}
	if o.Paid {
		return o, apperror.Conflictf("order %s is already paid", o.ID)
	}
	if o.Status != models.StatusEntregue {
		return o, apperror.Conflictf("order %s must be delivered before payment, status is %s", o.ID, o.Status)
	}

	now := p.Now()
	o.Paid = true
	o.PaymentMethod = &method
	o.PaidAt = &now
	o.UpdatedAt = now
	p.PutOrder(o)
	return o, nil
}

// Replace overwrites the editable part of an order: who it is for, its lines
// and the total. Identity, status and payment are kept. Stock is not touched.
func Replace(p *store.Partition, id string, d Draft) (before, after models.Order, err error) {
	if before, err = lookup(p, id); err != nil {
		return before, after, err
	}
	if before.Status.Terminal() || before.Paid {
		return before, after, apperror.Conflictf("order %s is %s and can no longer be edited", before.ID, before.Status)
	}
	if err = validateContext(d.Context); err != nil {
		return before, after, err
	}
	if err = ValidateItems(d.Items); err != nil {
		return before, after, err
	}

	after = before.Clone()
	after.Type = d.Context.Type()
	after.Context = d.Context
	after.Customer = d.Context.Summary()
	after.Items = prepareItems(d.Items, before.Items)
	after.Total = after.ComputeTotal()
	after.UpdatedAt = p.Now()
	p.PutOrder(after)
	return before, after, nil
}

func SetPriority(p *store.Partition, id string, prio models.Priority) (models.Order, error) {
	if !prio.Valid() {
		return models.Order{}, apperror.Validationf("unknown priority %q", prio)
	}
	o, err := lookup(p, id)
	if err != nil {
		return o, err
	}
	if o.Status.Terminal() {
		return o, apperror.Conflictf("order %s is %s", o.ID, o.Status)
	}
	if o.Priority == prio {
		return o, nil
	}
	o.Priority = prio
	o.UpdatedAt = p.Now()
	p.PutOrder(o)
	return o, nil
}

// Cancel marks a non-terminal, unpaid order as canceled. Restoring stock is the
// caller's job.
func Cancel(p *store.Partition, id, reason string) (models.Order, error) {
	o, err := lookup(p, id)
	if err != nil {
		return o, err
	}
	if o.Status.Terminal() || o.Paid {
		return o, apperror.Conflictf("order %s is %s and cannot be canceled", o.ID, o.Status)
	}

	o.Status = models.StatusCancelado
	o.CancelReason = strings.TrimSpace(reason)
	o.UpdatedAt = p.Now()
	p.PutOrder(o)
	return o, nil
}

func Get(p *store.Partition, id string) (models.Order, error) {
	return lookup(p, id)
}
