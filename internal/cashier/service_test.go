package cashier

import (
	"context"
	"testing"
	"time"

	"pos-backend/internal/models"
	"pos-backend/internal/order"
	"pos-backend/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryGroupsByMethodAndDay(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	st := store.New(store.WithClock(func() time.Time { return now }))
	est := st.MustCreateEstablishment("Cantina", "").ID
	m := order.NewMachine(st, nil, nil, nil)
	till := NewTill(m)
	ctx := context.Background()

	deliver := func(price string) models.Order {
		o, err := m.Create(ctx, est, order.Draft{
			Context: models.TableContext{Number: 1},
			Items:   []models.OrderItem{{Name: "Prato", Price: decimal.RequireFromString(price), Quantity: 1}},
		})
		require.NoError(t, err)
		_, err = m.UpdateStatus(ctx, est, o.ID, models.StatusEntregue)
		require.NoError(t, err)
		return o
	}

	a := deliver("20.00")
	b := deliver("35.50")
	c := deliver("10.00")
	deliver("7.00") // left unpaid

	_, err := till.MarkPaid(ctx, est, a.ID, models.PaymentPIX)
	require.NoError(t, err)
	_, err = till.MarkPaid(ctx, est, b.ID, models.PaymentPIX)
	require.NoError(t, err)

	now = now.Add(24 * time.Hour)
	_, err = till.MarkPaid(ctx, est, c.ID, models.PaymentCash)
	require.NoError(t, err)

	sum, err := till.Summary(est, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "2026-03-14", sum.Date)
	assert.Equal(t, 2, sum.PaidOrders)
	assert.True(t, decimal.RequireFromString("55.50").Equal(sum.GrandTotal))
	require.Len(t, sum.Items, 3)
	for _, it := range sum.Items {
		switch it.Method {
		case models.PaymentPIX:
			assert.Equal(t, 2, it.Orders)
		default:
			assert.Zero(t, it.Orders)
			assert.True(t, it.Total.IsZero())
		}
	}
	assert.Equal(t, 1, sum.PendingCount)
	assert.True(t, decimal.NewFromInt(7).Equal(sum.PendingTotal))

	next, err := till.Summary(est, now)
	require.NoError(t, err)
	assert.Equal(t, 1, next.PaidOrders)
	assert.True(t, decimal.NewFromInt(10).Equal(next.GrandTotal))
}

func TestPendingPaymentsExcludesPaid(t *testing.T) {
	st := store.New()
	est := st.MustCreateEstablishment("Cantina", "").ID
	m := order.NewMachine(st, nil, nil, nil)
	till := NewTill(m)
	ctx := context.Background()

	o, err := m.Create(ctx, est, order.Draft{
		Context: models.PickupContext{Name: "Ana", Phone: "1"},
		Items:   []models.OrderItem{{Name: "Prato", Price: decimal.NewFromInt(20), Quantity: 1}},
	})
	require.NoError(t, err)

	pending, err := till.PendingPayments(est)
	require.NoError(t, err)
	assert.Empty(t, pending, "not delivered yet")

	_, err = m.UpdateStatus(ctx, est, o.ID, models.StatusEntregue)
	require.NoError(t, err)
	pending, err = till.PendingPayments(est)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = till.MarkPaid(ctx, est, o.ID, models.PaymentCard)
	require.NoError(t, err)
	pending, err = till.PendingPayments(est)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
