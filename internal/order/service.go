package order

import (
	"context"
	"time"

	"pos-backend/internal/audit"
	"pos-backend/internal/metrics"
	"pos-backend/internal/models"
	"pos-backend/internal/store"

	"go.uber.org/zap"
)

// Machine runs the order state machine against the store, one establishment at a time.
type Machine struct {
	store   *store.Store
	audit   *audit.Recorder
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewMachine(st *store.Store, rec *audit.Recorder, m *metrics.Metrics, log *zap.Logger) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{store: st, audit: rec, metrics: m, log: log}
}

func (m *Machine) Now() time.Time {
	return m.store.Now()
}

func (m *Machine) update(establishmentID uint, fn func(p *store.Partition) (models.Order, error)) (models.Order, error) {
	var o models.Order
	err := m.store.Update(establishmentID, func(p *store.Partition) error {
		var err error
		o, err = fn(p)
		return err
	})
	return o, err
}

func (m *Machine) record(ctx context.Context, o models.Order, action models.AuditAction, desc string, before any) {
	_ = m.audit.WriteLog(ctx, audit.LogOptions{
		EstablishmentID: o.EstablishmentID,
		EntityType:      "order",
		EntityID:        o.ID,
		Action:          action,
		Description:     desc,
		Before:          before,
		After:           o,
	})
}

// Create places an order without touching stock. Use checkout for sales.
func (m *Machine) Create(ctx context.Context, establishmentID uint, d Draft) (models.Order, error) {
	o, err := m.update(establishmentID, func(p *store.Partition) (models.Order, error) {
		return Create(p, d)
	})
	if err != nil {
		return o, err
	}
	m.log.Info("order created", zap.Uint("establishment_id", establishmentID), zap.String("order_id", o.ID))
	m.metrics.OrderPlaced(o.Type)
	m.record(ctx, o, models.AuditActionCreate, "Order "+o.ID+" created", nil)
	return o, nil
}

func (m *Machine) UpdateStatus(ctx context.Context, establishmentID uint, id string, next models.OrderStatus) (models.Order, error) {
	var (
		changed bool
		prev    models.OrderStatus
	)
	o, err := m.update(establishmentID, func(p *store.Partition) (models.Order, error) {
		if cur, err := lookup(p, id); err == nil {
			prev = cur.Status
		}
		o, ch, err := UpdateStatus(p, id, next)
		changed = ch
		return o, err
	})
	if err != nil || !changed {
		return o, err
	}

	m.log.Info("order status changed",
		zap.Uint("establishment_id", establishmentID),
		zap.String("order_id", o.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(o.Status)),
	)
	m.metrics.OrderStatusChanged(o.Status)
	m.record(ctx, o, models.AuditActionUpdate, "Order "+o.ID+": "+string(prev)+" -> "+string(o.Status), map[string]any{"status": prev})
	return o, nil
}

func (m *Machine) ToggleItemPrepared(ctx context.Context, establishmentID uint, id string, index int) (models.Order, error) {
	o, err := m.update(establishmentID, func(p *store.Partition) (models.Order, error) {
		return ToggleItemPrepared(p, id, index)
	})
	if err != nil {
		return o, err
	}
	m.log.Debug("order item toggled",
		zap.Uint("establishment_id", establishmentID),
		zap.String("order_id", o.ID),
		zap.Int("index", index),
		zap.Bool("prepared", o.Items[index].Prepared),
	)
	return o, nil
}

func (m *Machine) MarkPaid(ctx context.Context, establishmentID uint, id string, method models.PaymentMethod) (models.Order, error) {
	o, err := m.update(establishmentID, func(p *store.Partition) (models.Order, error) {
		return MarkPaid(p, id, method)
	})
	if err != nil {
		return o, err
	}
	m.log.Info("order paid",
		zap.Uint("establishment_id", establishmentID),
		zap.String("order_id", o.ID),
		zap.String("method", string(method)),
		zap.String("total", o.Total.StringFixed(2)),
	)
	m.metrics.OrderPaid(method)
	m.record(ctx, o, models.AuditActionUpdate, "Order "+o.ID+" paid with "+string(method), nil)
	return o, nil
}

// UpdateOrder replaces an order's lines and context. It never moves stock;
// callers that need stock effects go through checkout.
func (m *Machine) UpdateOrder(ctx context.Context, establishmentID uint, id string, d Draft) (models.Order, error) {
	var before models.Order
	o, err := m.update(establishmentID, func(p *store.Partition) (models.Order, error) {
		b, after, err := Replace(p, id, d)
		before = b
		return after, err
	})
	if err != nil {
		return o, err
	}
	m.record(ctx, o, models.AuditActionUpdate, "Order "+o.ID+" edited", before)
	return o, nil
}

func (m *Machine) SetPriority(ctx context.Context, establishmentID uint, id string, prio models.Priority) (models.Order, error) {
	o, err := m.update(establishmentID, func(p *store.Partition) (models.Order, error) {
		return SetPriority(p, id, prio)
	})
	if err != nil {
		return o, err
	}
	m.record(ctx, o, models.AuditActionUpdate, "Order "+o.ID+" priority "+string(prio), nil)
	return o, nil
}

func (m *Machine) Get(establishmentID uint, id string) (models.Order, error) {
	var o models.Order
	err := m.store.View(establishmentID, func(p *store.Partition) error {
		var err error
		o, err = Get(p, id)
		return err
	})
	return o, err
}

func (m *Machine) List(establishmentID uint, f Filter) ([]models.Order, error) {
	var out []models.Order
	err := m.store.View(establishmentID, func(p *store.Partition) error {
		out = List(p, f)
		return nil
	})
	return out, err
}

func (m *Machine) KitchenOrders(establishmentID uint) ([]models.Order, error) {
	var out []models.Order
	err := m.store.View(establishmentID, func(p *store.Partition) error {
		out = KitchenOrders(p)
		return nil
	})
	return out, err
}

func (m *Machine) PendingPaymentOrders(establishmentID uint) ([]models.Order, error) {
	var out []models.Order
	err := m.store.View(establishmentID, func(p *store.Partition) error {
		out = PendingPaymentOrders(p)
		return nil
	})
	return out, err
}
