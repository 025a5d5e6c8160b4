package metrics

import (
	"strconv"
	"time"

	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the HTTP and domain collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec

	ordersPlaced   *prometheus.CounterVec
	ordersPaid     *prometheus.CounterVec
	inventoryTx    *prometheus.CounterVec
	stockAlerts    *prometheus.CounterVec
	statusChanges  *prometheus.CounterVec
	ordersCanceled prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers every collector on reg. Use prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_orders_placed_total",
			Help: "Orders placed, by order type",
		}, []string{"type"}),
		ordersPaid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_orders_paid_total",
			Help: "Orders marked paid, by payment method",
		}, []string{"method"}),
		inventoryTx: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_inventory_transactions_total",
			Help: "Inventory ledger entries, by type",
		}, []string{"type"}),
		stockAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_stock_alerts_total",
			Help: "Stock alerts raised, by level",
		}, []string{"level"}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_order_status_changes_total",
			Help: "Order status transitions, by target status",
		}, []string{"status"}),
		ordersCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pos_orders_canceled_total",
			Help: "Orders canceled with stock restored",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.requests,
		m.duration,
		m.ordersPlaced,
		m.ordersPaid,
		m.inventoryTx,
		m.stockAlerts,
		m.statusChanges,
		m.ordersCanceled,
	)
	return m
}

func (m *Metrics) Middleware() fiber.Handler {
	if m == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return func(c *fiber.Ctx) error {
		start := time.Now()
		// Resolve the error here so the recorded status is the one the client gets.
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		path := c.Route().Path

		m.requests.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return nil
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}

func (m *Metrics) OrderPlaced(t models.OrderType) {
	if m == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) OrderPaid(method models.PaymentMethod) {
	if m == nil {
		return
	}
	m.ordersPaid.WithLabelValues(string(method)).Inc()
}

func (m *Metrics) OrderStatusChanged(s models.OrderStatus) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(string(s)).Inc()
}

func (m *Metrics) OrderCanceled() {
	if m == nil {
		return
	}
	m.ordersCanceled.Inc()
}

func (m *Metrics) InventoryTransaction(t models.TransactionType) {
	if m == nil {
		return
	}
	m.inventoryTx.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) StockAlerts(alerts []models.StockAlert) {
	if m == nil {
		return
	}
	for _, a := range alerts {
		m.stockAlerts.WithLabelValues(string(a.Level)).Inc()
	}
}
