package checkout

import (
	"pos-backend/internal/auth"
	"pos-backend/internal/models"
	"pos-backend/internal/order"
	"pos-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=200"`
}

type ResultResponse struct {
	Order     order.OrderResponse `json:"order"`
	Alerts    []models.StockAlert `json:"alerts"`
	Warnings  []string            `json:"warnings"`
	Movements int                 `json:"stock_movements"`
}

func (c *Coordinator) response(r Result) ResultResponse {
	return ResultResponse{
		Order:     order.ToResponse(r.Order, c.orders.Now()),
		Alerts:    r.Alerts,
		Warnings:  r.Warnings,
		Movements: len(r.Transactions),
	}
}

func draftFromBody(c *fiber.Ctx) (order.Draft, error) {
	var body order.OrderRequest
	if err := utils.BindJSON(c, &body); err != nil {
		return order.Draft{}, err
	}
	octx, err := body.OrderContext()
	if err != nil {
		return order.Draft{}, err
	}
	return order.Draft{Context: octx, Items: body.OrderItems()}, nil
}

// POST /api/orders
func PlaceOrderHandler(co *Coordinator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}
		d, err := draftFromBody(c)
		if err != nil {
			return err
		}

		res, err := co.PlaceOrder(auth.RequestContext(c), estID, d)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(co.response(res))
	}
}

// PUT /api/orders/:id
func EditOrderHandler(co *Coordinator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}
		d, err := draftFromBody(c)
		if err != nil {
			return err
		}

		o, err := co.EditOrder(auth.RequestContext(c), estID, order.IDParam(c, "id"), d)
		if err != nil {
			return err
		}
		return c.JSON(order.ToResponse(o, co.orders.Now()))
	}
}

// POST /api/orders/:id/cancel
func CancelOrderHandler(co *Coordinator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}

		var body CancelOrderRequest
		if len(c.Body()) > 0 {
			if err := utils.BindJSON(c, &body); err != nil {
				return err
			}
		}

		res, err := co.CancelOrder(auth.RequestContext(c), estID, order.IDParam(c, "id"), body.Reason)
		if err != nil {
			return err
		}
		return c.JSON(co.response(res))
	}
}
