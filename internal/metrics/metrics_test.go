package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsResolvedStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "nope")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("GET", "/missing", "404")))
}

func TestDomainCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.OrderPlaced(models.OrderTypeTable)
	m.OrderPlaced(models.OrderTypeTable)
	m.StockAlerts([]models.StockAlert{{Level: models.AlertLow}, {Level: models.AlertOut}})

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP pos_orders_placed_total Orders placed, by order type
# TYPE pos_orders_placed_total counter
pos_orders_placed_total{type="mesa"} 2
`), "pos_orders_placed_total")
	assert.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.stockAlerts.WithLabelValues("out")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderPlaced(models.OrderTypePickup)
		m.OrderCanceled()
		m.StockAlerts([]models.StockAlert{{Level: models.AlertLow}})
	})

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
