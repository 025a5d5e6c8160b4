package main

import (
	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/cashier"
	"pos-backend/internal/checkout"
	"pos-backend/internal/config"
	"pos-backend/internal/inventory"
	"pos-backend/internal/order"

	"github.com/gofiber/fiber/v2"
)

func registerRoutes(app *fiber.App, cfg *config.Config, svc *services) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", svc.metrics.Handler())

	api := app.Group("/api")

	// Public: pick an establishment and open a session on it
	api.Post("/establishments", auth.CreateEstablishmentHandler(svc.store))
	api.Get("/establishments", auth.ListEstablishmentsHandler(svc.store))
	api.Post("/establishments/:id/session", auth.OpenSessionHandler(cfg, svc.store))

	// Everything below is scoped to the establishment in the token
	scoped := api.Group("", auth.JWTMiddleware(cfg.JWTSecret))

	// Catalog (static paths before :id)
	scoped.Get("/products", inventory.ListProductsHandler(svc.ledger))
	scoped.Post("/products", inventory.CreateProductHandler(svc.ledger))
	scoped.Get("/products/low-stock", inventory.LowStockHandler(svc.ledger))
	scoped.Get("/products/categories", inventory.ListCategoriesHandler(svc.ledger))
	scoped.Post("/products/import", inventory.ImportProductsHandler(svc.ledger))
	scoped.Get("/products/:id", inventory.GetProductHandler(svc.ledger))
	scoped.Put("/products/:id", inventory.UpdateProductHandler(svc.ledger))
	scoped.Delete("/products/:id", inventory.DeleteProductHandler(svc.ledger))

	// Inventory ledger
	scoped.Post("/inventory/transaction", inventory.CreateTransactionHandler(svc.ledger))
	scoped.Get("/inventory/transactions", inventory.ListTransactionsHandler(svc.ledger))
	scoped.Get("/inventory/product/:id", inventory.ProductTransactionsHandler(svc.ledger))

	// Orders
	scoped.Get("/orders", order.ListOrdersHandler(svc.orders))
	scoped.Post("/orders", checkout.PlaceOrderHandler(svc.checkout))
	scoped.Get("/orders/kitchen", order.KitchenOrdersHandler(svc.orders))
	scoped.Get("/orders/:id", order.GetOrderHandler(svc.orders))
	scoped.Put("/orders/:id", checkout.EditOrderHandler(svc.checkout))
	scoped.Patch("/orders/:id/status", order.UpdateStatusHandler(svc.orders))
	scoped.Patch("/orders/:id/priority", order.SetPriorityHandler(svc.orders))
	scoped.Patch("/orders/:orderId/items/:itemIndex/toggle-prepared", order.TogglePreparedHandler(svc.orders))
	scoped.Post("/orders/:id/cancel", checkout.CancelOrderHandler(svc.checkout))

	// Cashier
	scoped.Get("/cashier/pending", cashier.PendingPaymentsHandler(svc.till))
	scoped.Post("/cashier/orders/:id/pay", cashier.MarkPaidHandler(svc.till))
	scoped.Get("/cashier/summary", cashier.SummaryHandler(svc.till))
	scoped.Get("/cashier/chart", cashier.ChartHandler(svc.till))

	scoped.Get("/audit-logs", audit.ListAuditLogsHandler(svc.recorder, auth.EstablishmentID))
}
