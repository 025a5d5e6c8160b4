package cashier

import (
	"strconv"
	"time"

	"pos-backend/internal/apperror"
	"pos-backend/internal/auth"
	"pos-backend/internal/models"
	"pos-backend/internal/order"
	"pos-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type MarkPaidRequest struct {
	Method string `json:"method" validate:"required,oneof=Cash Card PIX"`
}

// GET /api/cashier/pending
func PendingPaymentsHandler(t *Till) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}
		orders, err := t.PendingPayments(estID)
		if err != nil {
			return err
		}
		return c.JSON(order.ToResponses(orders, t.orders.Now()))
	}
}

// POST /api/cashier/orders/:id/pay
func MarkPaidHandler(t *Till) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}

		var body MarkPaidRequest
		if err := utils.BindJSON(c, &body); err != nil {
			return err
		}

		o, err := t.MarkPaid(auth.RequestContext(c), estID, order.IDParam(c, "id"), models.PaymentMethod(body.Method))
		if err != nil {
			return err
		}
		return c.JSON(order.ToResponse(o, t.orders.Now()))
	}
}

// GET /api/cashier/summary?date=2026-03-14 (today when empty)
func SummaryHandler(t *Till) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}

		now := t.orders.Now()
		day := now
		if raw := c.Query("date"); raw != "" {
			day, err = time.ParseInLocation("2006-01-02", raw, now.Location())
			if err != nil {
				return apperror.Validation("date must be YYYY-MM-DD")
			}
		}

		sum, err := t.Summary(estID, day)
		if err != nil {
			return err
		}
		return c.JSON(sum)
	}
}

// GET /api/cashier/chart?period=daily&count=7
func ChartHandler(t *Till) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}

		period := Period(c.Query("period", string(PeriodDaily)))
		count := period.DefaultCount()
		if raw := c.Query("count"); raw != "" {
			count, err = strconv.Atoi(raw)
			if err != nil {
				return apperror.Validation("count must be a number")
			}
		}

		chart, err := t.Chart(estID, period, count, t.orders.Now())
		if err != nil {
			return err
		}
		return c.JSON(chart)
	}
}
