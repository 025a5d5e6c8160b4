package checkout

import (
	"context"
	"strings"
	"sync"
	"testing"

	"pos-backend/internal/apperror"
	"pos-backend/internal/inventory"
	"pos-backend/internal/metrics"
	"pos-backend/internal/models"
	"pos-backend/internal/order"
	"pos-backend/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	store   *store.Store
	ledger  *inventory.Ledger
	machine *order.Machine
	coord   *Coordinator
	reg     *prometheus.Registry
	estA    uint
	estB    uint
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st := store.New()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	ledger := inventory.NewLedger(st, inventory.Options{LowStockThreshold: 10}, nil, nil, m, nil)
	machine := order.NewMachine(st, nil, m, nil)
	return &env{
		store:   st,
		ledger:  ledger,
		machine: machine,
		coord:   NewCoordinator(st, ledger, machine, nil, m, nil),
		reg:     reg,
		estA:    st.MustCreateEstablishment("Cantina A", "").ID,
		estB:    st.MustCreateEstablishment("Cantina B", "").ID,
	}
}

func (e *env) product(t *testing.T, est uint, name, price string, stock int) uint {
	t.Helper()
	p, err := e.ledger.CreateProduct(context.Background(), est, inventory.ProductInput{
		Name: name, Price: decimal.RequireFromString(price), Stock: stock,
	})
	require.NoError(t, err)
	return p.ID
}

func (e *env) stock(t *testing.T, est, id uint) int {
	t.Helper()
	p, err := e.ledger.GetProduct(est, id)
	require.NoError(t, err)
	return p.Stock
}

func (e *env) txCount(t *testing.T, est uint) int {
	t.Helper()
	txs, err := e.ledger.Transactions(est)
	require.NoError(t, err)
	return len(txs)
}

func table(n int) models.OrderContext { return models.TableContext{Number: n} }

func TestPlaceOrderUsesCatalogPriceAndName(t *testing.T) {
	e := newEnv(t)
	pid := e.product(t, e.estA, "Coxinha", "7.50", 20)

	res, err := e.coord.PlaceOrder(context.Background(), e.estA, order.Draft{
		Context: table(3),
		Items: []models.OrderItem{
			{ProductID: &pid, Quantity: 2},
			{Name: "Taxa de rolha", Price: decimal.NewFromInt(15), Quantity: 1},
		},
	})
	require.NoError(t, err)

	o := res.Order
	assert.Equal(t, "Coxinha", o.Items[0].Name)
	assert.True(t, decimal.RequireFromString("7.50").Equal(o.Items[0].Price))
	assert.True(t, decimal.NewFromInt(30).Equal(o.Total))
	assert.Len(t, res.Transactions, 1)
	assert.Len(t, res.Warnings, 1)
	assert.Equal(t, 18, e.stock(t, e.estA, pid))

	expected := `
# HELP pos_orders_placed_total Orders placed, by order type
# TYPE pos_orders_placed_total counter
pos_orders_placed_total{type="mesa"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(e.reg, strings.NewReader(expected), "pos_orders_placed_total"))
}

func TestPlaceOrderExplicitPriceWins(t *testing.T) {
	e := newEnv(t)
	pid := e.product(t, e.estA, "Coxinha", "7.50", 20)
	price := decimal.RequireFromString("5.00")

	res, err := e.coord.PlaceOrder(context.Background(), e.estA, order.Draft{
		Context: table(3),
		Items:   []models.OrderItem{{ProductID: &pid, Name: "Coxinha (promo)", Price: price, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(res.Order.Total))
	assert.Equal(t, "Coxinha (promo)", res.Order.Items[0].Name)
}

func TestPlaceOrderForeignProductIsNotFound(t *testing.T) {
	e := newEnv(t)
	foreign := e.product(t, e.estB, "Kibe", "6", 10)

	_, err := e.coord.PlaceOrder(context.Background(), e.estA, order.Draft{
		Context: table(1),
		Items:   []models.OrderItem{{ProductID: &foreign, Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, 10, e.stock(t, e.estB, foreign))

	orders, err := e.machine.List(e.estA, order.Filter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrderInactiveProduct(t *testing.T) {
	e := newEnv(t)
	pid := e.product(t, e.estA, "Coxinha", "7.50", 20)
	inactive := models.ProductInactive
	_, err := e.ledger.UpdateProduct(context.Background(), e.estA, pid, inventory.ProductPatch{Status: &inactive})
	require.NoError(t, err)

	_, err = e.coord.PlaceOrder(context.Background(), e.estA, order.Draft{
		Context: table(1),
		Items:   []models.OrderItem{{ProductID: &pid, Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestPlaceOrderValidation(t *testing.T) {
	e := newEnv(t)
	pid := e.product(t, e.estA, "Coxinha", "7.50", 20)
	line := []models.OrderItem{{ProductID: &pid, Quantity: 1}}

	cases := map[string]order.Draft{
		"empty items":      {Context: table(1)},
		"no table":         {Context: table(0), Items: line},
		"pickup no phone":  {Context: models.PickupContext{Name: "Ana"}, Items: line},
		"delivery no addr": {Context: models.DeliveryContext{Name: "Ana", Phone: "1"}, Items: line},
		"zero quantity":    {Context: table(1), Items: []models.OrderItem{{ProductID: &pid, Quantity: 0}}},
	}
	for name, d := range cases {
		_, err := e.coord.PlaceOrder(context.Background(), e.estA, d)
		assert.ErrorIs(t, err, apperror.ErrValidation, name)
	}

	assert.Equal(t, 20, e.stock(t, e.estA, pid))
	assert.Equal(t, 1, e.txCount(t, e.estA))
}

func TestPlaceOrderLowStockAlert(t *testing.T) {
	e := newEnv(t)
	pid := e.product(t, e.estA, "Coxinha", "7.50", 12)

	res, err := e.coord.PlaceOrder(context.Background(), e.estA, order.Draft{
		Context: table(1),
		Items:   []models.OrderItem{{ProductID: &pid, Quantity: 5}},
	})
	require.NoError(t, err)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, models.AlertLow, res.Alerts[0].Level)
	assert.Equal(t, 7, res.Alerts[0].Stock)
}

func TestEditOrderNeverMovesStock(t *testing.T) {
	e := newEnv(t)
	pid := e.product(t, e.estA, "Coxinha", "7.50", 20)

	res, err := e.coord.PlaceOrder(context.Background(), e.estA, order.Draft{
		Context: table(1),
		Items:   []models.OrderItem{{ProductID: &pid, Quantity: 2}},
	})
	require.NoError(t, err)
	before := e.txCount(t, e.estA)

	for qty := 1; qty <= 4; qty++ {
		edited, err := e.coord.EditOrder(context.Background(), e.estA, res.Order.ID, order.Draft{
			Context: table(2),
			Items:   []models.OrderItem{{ProductID: &pid, Quantity: qty}},
		})
		require.NoError(t, err)
		assert.Equal(t, "Mesa 2", edited.Customer)
	}

	assert.Equal(t, before, e.txCount(t, e.estA))
	assert.Equal(t, 18, e.stock(t, e.estA, pid))
}

func TestEditOrderRejectsEmptyItems(t *testing.T) {
	e := newEnv(t)
	pid := e.product(t, e.estA, "Coxinha", "7.50", 20)
	res, err := e.coord.PlaceOrder(context.Background(), e.estA, order.Draft{
		Context: table(1),
		Items:   []models.OrderItem{{ProductID: &pid, Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = e.coord.EditOrder(context.Background(), e.estA, res.Order.ID, order.Draft{Context: table(1)})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = e.coord.EditOrder(context.Background(), e.estB, res.Order.ID, order.Draft{
		Context: table(1),
		Items:   []models.OrderItem{{Name: "Suco", Price: decimal.NewFromInt(8), Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCancelOrderRestoresStock(t *testing.T) {
	e := newEnv(t)
	pid := e.product(t, e.estA, "Coxinha", "7.50", 20)
	res, err := e.coord.PlaceOrder(context.Background(), e.estA, order.Draft{
		Context: table(1),
		Items: []models.OrderItem{
			{ProductID: &pid, Quantity: 3},
			{Name: "Prato do dia", Price: decimal.NewFromInt(25), Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 17, e.stock(t, e.estA, pid))

	canceled, err := e.coord.CancelOrder(context.Background(), e.estA, res.Order.ID, "wrong table")
	require.NoError(t, err)

	assert.Equal(t, models.StatusCancelado, canceled.Order.Status)
	assert.Equal(t, "wrong table", canceled.Order.CancelReason)
	require.Len(t, canceled.Transactions, 1)
	assert.Equal(t, models.TransactionIn, canceled.Transactions[0].Type)
	assert.Equal(t, "Cancel #001", canceled.Transactions[0].Reason)
	assert.Equal(t, 20, e.stock(t, e.estA, pid))

	kitchen, err := e.machine.KitchenOrders(e.estA)
	require.NoError(t, err)
	assert.Empty(t, kitchen)

	_, err = e.coord.CancelOrder(context.Background(), e.estA, res.Order.ID, "")
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, 20, e.stock(t, e.estA, pid))
}

func TestCancelAfterShortSaleRestoresOnlyWhatWasTaken(t *testing.T) {
	e := newEnv(t)
	pid := e.product(t, e.estA, "Coxinha", "7.50", 5)

	res, err := e.coord.PlaceOrder(context.Background(), e.estA, order.Draft{
		Context: table(1),
		Items:   []models.OrderItem{{ProductID: &pid, Quantity: 10}},
	})
	require.NoError(t, err)
	require.Zero(t, e.stock(t, e.estA, pid))
	assert.Contains(t, res.Warnings, `item "Coxinha": stock short by 5`)

	canceled, err := e.coord.CancelOrder(context.Background(), e.estA, res.Order.ID, "")
	require.NoError(t, err)

	require.Len(t, canceled.Transactions, 1)
	assert.Equal(t, 5, canceled.Transactions[0].Quantity)
	assert.Equal(t, res.Order.ID, canceled.Transactions[0].OrderID)
	assert.Equal(t, 5, e.stock(t, e.estA, pid))
}

func TestCancelAfterEditRestoresTheOriginalSale(t *testing.T) {
	e := newEnv(t)
	pid := e.product(t, e.estA, "Coxinha", "7.50", 20)

	res, err := e.coord.PlaceOrder(context.Background(), e.estA, order.Draft{
		Context: table(1),
		Items:   []models.OrderItem{{ProductID: &pid, Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = e.coord.EditOrder(context.Background(), e.estA, res.Order.ID, order.Draft{
		Context: table(1),
		Items:   []models.OrderItem{{ProductID: &pid, Quantity: 6}},
	})
	require.NoError(t, err)

	_, err = e.coord.CancelOrder(context.Background(), e.estA, res.Order.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 20, e.stock(t, e.estA, pid))
}

func TestCancelDeliveredOrderIsConflict(t *testing.T) {
	e := newEnv(t)
	pid := e.product(t, e.estA, "Coxinha", "7.50", 20)
	res, err := e.coord.PlaceOrder(context.Background(), e.estA, order.Draft{
		Context: table(1),
		Items:   []models.OrderItem{{ProductID: &pid, Quantity: 3}},
	})
	require.NoError(t, err)
	_, err = e.machine.UpdateStatus(context.Background(), e.estA, res.Order.ID, models.StatusEntregue)
	require.NoError(t, err)

	_, err = e.coord.CancelOrder(context.Background(), e.estA, res.Order.ID, "")
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, 17, e.stock(t, e.estA, pid))
}

func TestConcurrentPlacementsKeepIDsAndStockConsistent(t *testing.T) {
	e := newEnv(t)
	pid := e.product(t, e.estA, "Coxinha", "7.50", 1000)

	const n = 40
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.coord.PlaceOrder(context.Background(), e.estA, order.Draft{
				Context: table(1),
				Items:   []models.OrderItem{{ProductID: &pid, Quantity: 2}},
			})
			if assert.NoError(t, err) {
				ids <- res.Order.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	for i := 1; i <= n; i++ {
		assert.True(t, seen[models.FormatOrderID(i)], "missing %s", models.FormatOrderID(i))
	}
	assert.Equal(t, 1000-2*n, e.stock(t, e.estA, pid))
}
