package inventory

import (
	"context"
	"fmt"
	"math"
	"sort"

	"pos-backend/internal/apperror"
	"pos-backend/internal/audit"
	"pos-backend/internal/metrics"
	"pos-backend/internal/models"
	"pos-backend/internal/notify"
	"pos-backend/internal/store"

	"go.uber.org/zap"
)

const (
	DefaultLowStockThreshold = 10

	ReasonSale         = "Sale"
	ReasonInitialStock = "Initial stock"

	// MaxQuantity caps a single movement coming in over the API.
	MaxQuantity = 1_000_000
)

type Options struct {
	LowStockThreshold int
	// StrictStock rejects an Out larger than the stock instead of clamping at 0.
	StrictStock bool
}

type TransactionRequest struct {
	ProductID uint
	Type      models.TransactionType
	Quantity  int
	Reason    string
	OrderID   string // set on sale and cancel movements
}

type TransactionResult struct {
	Transaction models.InventoryTransaction `json:"transaction"`
	Alerts      []models.StockAlert         `json:"alerts"`
}

// BatchResult is the outcome of applying a list of order lines to stock.
// Warnings name the lines that could not move stock; they never fail the batch.
type BatchResult struct {
	Transactions []models.InventoryTransaction `json:"transactions"`
	Alerts       []models.StockAlert           `json:"alerts"`
	Warnings     []string                      `json:"warnings"`
}

func (r *BatchResult) merge(tx models.InventoryTransaction, alert *models.StockAlert) {
	r.Transactions = append(r.Transactions, tx)
	if alert != nil {
		r.Alerts = append(r.Alerts, *alert)
	}
}

// Ledger owns stock levels and the append-only transaction history.
type Ledger struct {
	store    *store.Store
	opts     Options
	notifier notify.Notifier
	audit    *audit.Recorder
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewLedger(st *store.Store, opts Options, notifier notify.Notifier, rec *audit.Recorder, m *metrics.Metrics, log *zap.Logger) *Ledger {
	if opts.LowStockThreshold < 0 {
		opts.LowStockThreshold = DefaultLowStockThreshold
	}
	if notifier == nil {
		notifier = notify.Multi{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{store: st, opts: opts, notifier: notifier, audit: rec, metrics: m, log: log}
}

func (l *Ledger) Threshold() int {
	return l.opts.LowStockThreshold
}

func (l *Ledger) Options() Options {
	return l.opts
}

// Record applies one stock change inside an already locked partition.
func Record(p *store.Partition, req TransactionRequest, opts Options) (models.InventoryTransaction, *models.StockAlert, error) {
	if !req.Type.Valid() {
		return models.InventoryTransaction{}, nil, apperror.Validationf("unknown transaction type %q", req.Type)
	}
	// A physical count of zero is a valid Adjust.
	if req.Quantity < 0 || (req.Quantity == 0 && req.Type != models.TransactionAdjust) {
		return models.InventoryTransaction{}, nil, apperror.Validation("quantity must be positive")
	}

	prod, ok := p.Product(req.ProductID)
	if !ok {
		return models.InventoryTransaction{}, nil, apperror.NotFoundf("product %d not found", req.ProductID)
	}

	before := prod.Stock
	after := before
	switch req.Type {
	case models.TransactionIn:
		if req.Quantity > math.MaxInt-before {
			return models.InventoryTransaction{}, nil, apperror.Validationf(
				"quantity %d would overflow the stock of %s", req.Quantity, prod.Name)
		}
		after = before + req.Quantity
	case models.TransactionOut:
		if opts.StrictStock && req.Quantity > before {
			return models.InventoryTransaction{}, nil, apperror.InsufficientStockf(
				"insufficient stock for %s: available %d, requested %d", prod.Name, before, req.Quantity)
		}
		after = max(0, before-req.Quantity)
	case models.TransactionAdjust:
		after = req.Quantity
	}

	now := p.Now()
	prod.Stock = after
	prod.UpdatedAt = now
	p.PutProduct(prod)

	tx := models.InventoryTransaction{
		ID:          p.NextTransactionID(),
		ProductID:   prod.ID,
		Type:        req.Type,
		Quantity:    req.Quantity,
		Delta:       after - before,
		StockBefore: before,
		StockAfter:  after,
		Reason:      req.Reason,
		OrderID:     req.OrderID,
		Date:        now,
	}
	p.AppendTransaction(tx)
	tx.EstablishmentID = p.EstablishmentID()

	prod.EstablishmentID = p.EstablishmentID()
	if alert, ok := models.CheckStockAlert(prod, before, opts.LowStockThreshold); ok {
		return tx, &alert, nil
	}
	return tx, nil, nil
}

// ApplySaleBatch records one Out per catalog line of the order. Lines without a
// product are skipped with a warning; ad-hoc lines are allowed on orders. Sales
// always clamp at zero because the order already exists by the time stock moves.
func ApplySaleBatch(p *store.Partition, orderID string, items []models.OrderItem, opts Options) BatchResult {
	opts.StrictStock = false
	res := newBatchResult(len(items))
	for _, it := range items {
		if it.ProductID == nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("item %q has no catalog product, stock not changed", it.Name))
			continue
		}
		tx, alert, err := Record(p, TransactionRequest{
			ProductID: *it.ProductID,
			Type:      models.TransactionOut,
			Quantity:  it.Quantity,
			Reason:    ReasonSale,
			OrderID:   orderID,
		}, opts)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("item %q: %v", it.Name, err))
			continue
		}
		if tx.Clamped() {
			res.Warnings = append(res.Warnings, fmt.Sprintf("item %q: stock short by %d", it.Name, tx.Quantity+tx.Delta))
		}
		res.merge(tx, alert)
	}
	return res
}

// RestoreSale puts back what the order's sale movements actually took. A line
// that was clamped is credited only the units it removed.
func RestoreSale(p *store.Partition, orderID, reason string, opts Options) BatchResult {
	sales := make([]models.InventoryTransaction, 0)
	for _, tx := range p.Transactions() {
		if tx.OrderID == orderID && tx.Type == models.TransactionOut && tx.Reason == ReasonSale && tx.Delta < 0 {
			sales = append(sales, tx)
		}
	}

	res := newBatchResult(len(sales))
	for _, sale := range sales {
		tx, alert, err := Record(p, TransactionRequest{
			ProductID: sale.ProductID,
			Type:      models.TransactionIn,
			Quantity:  -sale.Delta,
			Reason:    reason,
			OrderID:   orderID,
		}, opts)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("product %d: %v", sale.ProductID, err))
			continue
		}
		res.merge(tx, alert)
	}
	return res
}

func newBatchResult(n int) BatchResult {
	return BatchResult{
		Transactions: make([]models.InventoryTransaction, 0, n),
		Alerts:       make([]models.StockAlert, 0),
		Warnings:     make([]string, 0),
	}
}

// LowStock lists the partition's products whose stock is below threshold.
func LowStock(p *store.Partition, threshold int) []models.Product {
	out := make([]models.Product, 0)
	for _, prod := range p.Products() {
		if prod.IsLowStock(threshold) {
			out = append(out, prod)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	return out
}

func (l *Ledger) RecordTransaction(ctx context.Context, establishmentID uint, req TransactionRequest) (TransactionResult, error) {
	var (
		tx     models.InventoryTransaction
		alert  *models.StockAlert
		before models.Product
	)
	err := l.store.Update(establishmentID, func(p *store.Partition) error {
		before, _ = p.Product(req.ProductID)
		var err error
		tx, alert, err = Record(p, req, l.opts)
		return err
	})
	if err != nil {
		return TransactionResult{}, err
	}

	res := TransactionResult{Transaction: tx, Alerts: []models.StockAlert{}}
	if alert != nil {
		res.Alerts = append(res.Alerts, *alert)
	}

	l.log.Info("inventory transaction recorded",
		zap.Uint("establishment_id", establishmentID),
		zap.Uint("product_id", tx.ProductID),
		zap.String("type", string(tx.Type)),
		zap.Int("quantity", tx.Quantity),
		zap.Int("stock_after", tx.StockAfter),
	)
	_ = l.audit.WriteLog(ctx, audit.LogOptions{
		EstablishmentID: establishmentID,
		EntityType:      "inventory_transaction",
		EntityID:        fmt.Sprint(tx.ID),
		Action:          models.AuditActionCreate,
		Description:     fmt.Sprintf("%s %d x %s (%s)", tx.Type, tx.Quantity, before.Name, tx.Reason),
		After:           tx,
	})
	l.Announce(ctx, []models.InventoryTransaction{tx}, res.Alerts)
	return res, nil
}

// Announce reports committed transactions and alerts to metrics and notifiers.
// Call it after the store lock is released.
func (l *Ledger) Announce(ctx context.Context, txs []models.InventoryTransaction, alerts []models.StockAlert) {
	for _, tx := range txs {
		l.metrics.InventoryTransaction(tx.Type)
	}
	if len(alerts) > 0 {
		l.metrics.StockAlerts(alerts)
		l.notifier.NotifyStock(ctx, alerts)
	}
}

// LowStock uses the configured threshold when threshold is nil.
func (l *Ledger) LowStock(establishmentID uint, threshold *int) ([]models.Product, error) {
	t := l.opts.LowStockThreshold
	if threshold != nil {
		if *threshold < 0 {
			return nil, apperror.Validation("threshold cannot be negative")
		}
		t = *threshold
	}

	var out []models.Product
	err := l.store.View(establishmentID, func(p *store.Partition) error {
		out = LowStock(p, t)
		return nil
	})
	return out, err
}

// ProductTransactions returns one product's history, newest first.
func (l *Ledger) ProductTransactions(establishmentID, productID uint) ([]models.InventoryTransaction, error) {
	var out []models.InventoryTransaction
	err := l.store.View(establishmentID, func(p *store.Partition) error {
		_, exists := p.Product(productID)
		for _, tx := range p.Transactions() {
			if tx.ProductID == productID {
				out = append(out, tx)
			}
		}
		if !exists && len(out) == 0 {
			return apperror.NotFoundf("product %d not found", productID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	reverse(out)
	return out, nil
}

// Transactions returns the establishment's ledger, newest first.
func (l *Ledger) Transactions(establishmentID uint) ([]models.InventoryTransaction, error) {
	var out []models.InventoryTransaction
	err := l.store.View(establishmentID, func(p *store.Partition) error {
		out = p.Transactions()
		return nil
	})
	if err != nil {
		return nil, err
	}
	reverse(out)
	return out, nil
}

func reverse(txs []models.InventoryTransaction) {
	for i, j := 0, len(txs)-1; i < j; i, j = i+1, j-1 {
		txs[i], txs[j] = txs[j], txs[i]
	}
}
