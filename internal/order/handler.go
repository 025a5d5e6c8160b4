package order

import (
	"strconv"

	"pos-backend/internal/apperror"
	"pos-backend/internal/auth"
	"pos-backend/internal/models"
	"pos-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type SetPriorityRequest struct {
	Priority string `json:"priority" validate:"required,oneof=Normal Urgente"`
}

// GET /api/orders?status=&paid=&type=
func ListOrdersHandler(m *Machine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}

		var f Filter
		if raw := c.Query("status"); raw != "" {
			s, ok := models.ParseOrderStatus(raw)
			if !ok {
				return apperror.Validationf("unknown status %q", raw)
			}
			f.Status = &s
		}
		if raw := c.Query("paid"); raw != "" {
			paid, err := strconv.ParseBool(raw)
			if err != nil {
				return apperror.Validation("paid must be true or false")
			}
			f.Paid = &paid
		}
		f.Type = models.OrderType(c.Query("type"))

		orders, err := m.List(estID, f)
		if err != nil {
			return err
		}
		return c.JSON(ToResponses(orders, m.Now()))
	}
}

// GET /api/orders/kitchen
func KitchenOrdersHandler(m *Machine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}
		orders, err := m.KitchenOrders(estID)
		if err != nil {
			return err
		}
		return c.JSON(ToResponses(orders, m.Now()))
	}
}

// GET /api/orders/:id
func GetOrderHandler(m *Machine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}
		o, err := m.Get(estID, IDParam(c, "id"))
		if err != nil {
			return err
		}
		return c.JSON(ToResponse(o, m.Now()))
	}
}

// PATCH /api/orders/:id/status
func UpdateStatusHandler(m *Machine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}

		var body UpdateStatusRequest
		if err := utils.BindJSON(c, &body); err != nil {
			return err
		}
		status, ok := models.ParseOrderStatus(body.Status)
		if !ok {
			return apperror.Validationf("unknown status %q", body.Status)
		}

		o, err := m.UpdateStatus(auth.RequestContext(c), estID, IDParam(c, "id"), status)
		if err != nil {
			return err
		}
		return c.JSON(ToResponse(o, m.Now()))
	}
}

// PATCH /api/orders/:id/priority
func SetPriorityHandler(m *Machine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}

		var body SetPriorityRequest
		if err := utils.BindJSON(c, &body); err != nil {
			return err
		}

		o, err := m.SetPriority(auth.RequestContext(c), estID, IDParam(c, "id"), models.Priority(body.Priority))
		if err != nil {
			return err
		}
		return c.JSON(ToResponse(o, m.Now()))
	}
}

// PATCH /api/orders/:orderId/items/:itemIndex/toggle-prepared
func TogglePreparedHandler(m *Machine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}

		index, err := strconv.Atoi(c.Params("itemIndex"))
		if err != nil {
			return apperror.IndexOutOfRangef("invalid item index %q", c.Params("itemIndex"))
		}

		o, err := m.ToggleItemPrepared(auth.RequestContext(c), estID, IDParam(c, "orderId"), index)
		if err != nil {
			return err
		}
		return c.JSON(ToResponse(o, m.Now()))
	}
}
