package inventory

import (
	"pos-backend/internal/auth"
	"pos-backend/internal/logger"
	"pos-backend/internal/models"
	"pos-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CreateTransactionRequest struct {
	ProductID uint   `json:"product_id" validate:"required"`
	Type      string `json:"type" validate:"required,oneof=In Out Adjust"`
	Quantity  int    `json:"quantity" validate:"gte=0,lte=1000000"`
	Reason    string `json:"reason" validate:"max=200"`
}

type TransactionResponse struct {
	ID          uint   `json:"id"`
	ProductID   uint   `json:"product_id"`
	Type        string `json:"type"`
	Quantity    int    `json:"quantity"`
	Delta       int    `json:"delta"`
	StockBefore int    `json:"stock_before"`
	StockAfter  int    `json:"stock_after"`
	Reason      string `json:"reason"`
	OrderID     string `json:"order_id,omitempty"`
	Date        string `json:"date"`
}

func toTransactionResponse(tx models.InventoryTransaction) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID,
		ProductID:   tx.ProductID,
		Type:        string(tx.Type),
		Quantity:    tx.Quantity,
		Delta:       tx.Delta,
		StockBefore: tx.StockBefore,
		StockAfter:  tx.StockAfter,
		Reason:      tx.Reason,
		OrderID:     tx.OrderID,
		Date:        tx.Date.Format("2006-01-02 15:04:05"),
	}
}

func toTransactionResponses(txs []models.InventoryTransaction) []TransactionResponse {
	res := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		res = append(res, toTransactionResponse(tx))
	}
	return res
}

// POST /api/inventory/transaction
func CreateTransactionHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}

		var body CreateTransactionRequest
		if err := utils.BindJSON(c, &body); err != nil {
			return err
		}

		res, err := l.RecordTransaction(auth.RequestContext(c), estID, TransactionRequest{
			ProductID: body.ProductID,
			Type:      models.TransactionType(body.Type),
			Quantity:  body.Quantity,
			Reason:    body.Reason,
		})
		if err != nil {
			return err
		}
		if res.Transaction.Clamped() {
			logger.FromCtx(c).Warn("out transaction clamped at zero",
				zap.Uint("product_id", res.Transaction.ProductID),
				zap.Int("requested", res.Transaction.Quantity),
				zap.Int("removed", -res.Transaction.Delta),
			)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"transaction": toTransactionResponse(res.Transaction),
			"alerts":      res.Alerts,
		})
	}
}

// GET /api/inventory/transactions
func ListTransactionsHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}
		txs, err := l.Transactions(estID)
		if err != nil {
			return err
		}
		return c.JSON(toTransactionResponses(txs))
	}
}

// GET /api/inventory/product/:id
func ProductTransactionsHandler(l *Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		estID, err := auth.EstablishmentID(c)
		if err != nil {
			return err
		}
		id, err := productIDParam(c, "id")
		if err != nil {
			return err
		}

		txs, err := l.ProductTransactions(estID, id)
		if err != nil {
			return err
		}
		return c.JSON(toTransactionResponses(txs))
	}
}
