package checkout

import (
	"context"
	"fmt"

	"pos-backend/internal/apperror"
	"pos-backend/internal/audit"
	"pos-backend/internal/inventory"
	"pos-backend/internal/metrics"
	"pos-backend/internal/models"
	"pos-backend/internal/order"
	"pos-backend/internal/store"

	"go.uber.org/zap"
)

// Result is an order together with the stock movements it caused.
type Result struct {
	Order        models.Order                  `json:"order"`
	Transactions []models.InventoryTransaction `json:"transactions"`
	Alerts       []models.StockAlert           `json:"alerts"`
	Warnings     []string                      `json:"warnings"`
}

func newResult(o models.Order, b inventory.BatchResult) Result {
	return Result{Order: o, Transactions: b.Transactions, Alerts: b.Alerts, Warnings: b.Warnings}
}

// Coordinator runs the compound order operations. Each one holds the
// establishment lock for its whole duration, so the order change and its stock
// movements are committed together or not at all.
type Coordinator struct {
	store   *store.Store
	ledger  *inventory.Ledger
	orders  *order.Machine
	audit   *audit.Recorder
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewCoordinator(st *store.Store, ledger *inventory.Ledger, orders *order.Machine, rec *audit.Recorder, m *metrics.Metrics, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{store: st, ledger: ledger, orders: orders, audit: rec, metrics: m, log: log}
}

// resolveItems fills name and price of catalog lines from the product and
// rejects products the establishment does not own.
func resolveItems(p *store.Partition, items []models.OrderItem, requireActive bool) ([]models.OrderItem, error) {
	out := make([]models.OrderItem, len(items))
	for i, it := range items {
		if it.ProductID != nil {
			prod, ok := p.Product(*it.ProductID)
			if !ok {
				return nil, apperror.NotFoundf("product %d not found", *it.ProductID)
			}
			if requireActive && prod.Status != models.ProductActive {
				return nil, apperror.Validationf("product %s is inactive", prod.Name)
			}
			if it.Name == "" {
				it.Name = prod.Name
			}
			if it.Price.IsZero() {
				it.Price = prod.Price
			}
		}
		out[i] = it
	}
	return out, nil
}

func checkDraft(d order.Draft) error {
	if d.Context == nil {
		return apperror.Validation("order type is required")
	}
	if err := d.Context.Validate(); err != nil {
		return err
	}
	if len(d.Items) == 0 {
		return apperror.Validation("an order needs at least one item")
	}
	return nil
}

// PlaceOrder creates the order and takes its catalog lines out of stock.
// Lines without a product are sold without a stock movement and reported
// as warnings.
func (c *Coordinator) PlaceOrder(ctx context.Context, establishmentID uint, d order.Draft) (Result, error) {
	if err := checkDraft(d); err != nil {
		return Result{}, err
	}

	var res Result
	err := c.store.Update(establishmentID, func(p *store.Partition) error {
		items, err := resolveItems(p, d.Items, true)
		if err != nil {
			return err
		}
		o, err := order.Create(p, order.Draft{Context: d.Context, Items: items})
		if err != nil {
			return err
		}
		batch := inventory.ApplySaleBatch(p, o.ID, o.Items, c.ledger.Options())
		res = newResult(o, batch)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	o := res.Order
	c.log.Info("order placed",
		zap.Uint("establishment_id", establishmentID),
		zap.String("order_id", o.ID),
		zap.String("type", string(o.Type)),
		zap.String("total", o.Total.StringFixed(2)),
		zap.Int("stock_movements", len(res.Transactions)),
	)
	for _, w := range res.Warnings {
		c.log.Warn("order placed with stock warning", zap.String("order_id", o.ID), zap.String("warning", w))
	}
	c.metrics.OrderPlaced(o.Type)
	c.ledger.Announce(ctx, res.Transactions, res.Alerts)
	_ = c.audit.WriteLog(ctx, audit.LogOptions{
		EstablishmentID: establishmentID,
		EntityType:      "order",
		EntityID:        o.ID,
		Action:          models.AuditActionCreate,
		Description:     fmt.Sprintf("Order %s placed for %s", o.ID, o.Customer),
		After:           o,
	})
	return res, nil
}

// EditOrder replaces the lines and customer of an open order. Stock was taken
// when the order was placed and is left alone here.
func (c *Coordinator) EditOrder(ctx context.Context, establishmentID uint, id string, d order.Draft) (models.Order, error) {
	if err := checkDraft(d); err != nil {
		return models.Order{}, err
	}

	var before, after models.Order
	err := c.store.Update(establishmentID, func(p *store.Partition) error {
		items, err := resolveItems(p, d.Items, false)
		if err != nil {
			return err
		}
		before, after, err = order.Replace(p, id, order.Draft{Context: d.Context, Items: items})
		return err
	})
	if err != nil {
		return models.Order{}, err
	}

	c.log.Info("order edited",
		zap.Uint("establishment_id", establishmentID),
		zap.String("order_id", after.ID),
		zap.String("total", after.Total.StringFixed(2)),
	)
	_ = c.audit.WriteLog(ctx, audit.LogOptions{
		EstablishmentID: establishmentID,
		EntityType:      "order",
		EntityID:        after.ID,
		Action:          models.AuditActionUpdate,
		Description:     fmt.Sprintf("Order %s edited", after.ID),
		Before:          before,
		After:           after,
	})
	return after, nil
}

// CancelOrder cancels an open order and puts back the stock its sale took.
func (c *Coordinator) CancelOrder(ctx context.Context, establishmentID uint, id, reason string) (Result, error) {
	var res Result
	err := c.store.Update(establishmentID, func(p *store.Partition) error {
		o, err := order.Cancel(p, id, reason)
		if err != nil {
			return err
		}
		batch := inventory.RestoreSale(p, o.ID, "Cancel "+o.ID, c.ledger.Options())
		res = newResult(o, batch)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	o := res.Order
	c.log.Info("order canceled",
		zap.Uint("establishment_id", establishmentID),
		zap.String("order_id", o.ID),
		zap.String("reason", o.CancelReason),
		zap.Int("stock_movements", len(res.Transactions)),
	)
	c.metrics.OrderCanceled()
	c.ledger.Announce(ctx, res.Transactions, res.Alerts)
	_ = c.audit.WriteLog(ctx, audit.LogOptions{
		EstablishmentID: establishmentID,
		EntityType:      "order",
		EntityID:        o.ID,
		Action:          models.AuditActionUpdate,
		Description:     fmt.Sprintf("Order %s canceled: %s", o.ID, o.CancelReason),
		After:           o,
	})
	return res, nil
}
