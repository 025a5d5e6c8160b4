package order

import (
	"net/url"
	"strings"
	"time"

	"pos-backend/internal/apperror"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ItemRequest struct {
	ID        string           `json:"id"`
	ProductID *uint            `json:"product_id"`
	Name      string           `json:"name" validate:"max=120"`
	Price     *decimal.Decimal `json:"price"` // optional when product_id is set
	Quantity  int              `json:"quantity" validate:"gte=1,lte=1000000"`
	Notes     string           `json:"notes" validate:"max=300"`
}

// OrderRequest is the body of order creation and edits. Which customer fields
// are required depends on Type.
type OrderRequest struct {
	Type        string           `json:"type" validate:"required,oneof=mesa retirada delivery"`
	TableNumber int              `json:"table_number"`
	Name        string           `json:"name"`
	Phone       string           `json:"phone"`
	Address     string           `json:"address"`
	DeliveryFee *decimal.Decimal `json:"delivery_fee"`
	Items       []ItemRequest    `json:"items" validate:"dive"`
}

func (r OrderRequest) OrderContext() (models.OrderContext, error) {
	var ctx models.OrderContext
	switch models.OrderType(r.Type) {
	case models.OrderTypeTable:
		ctx = models.TableContext{Number: r.TableNumber}
	case models.OrderTypePickup:
		ctx = models.PickupContext{Name: strings.TrimSpace(r.Name), Phone: strings.TrimSpace(r.Phone)}
	case models.OrderTypeDelivery:
		fee := decimal.Zero
		if r.DeliveryFee != nil {
			fee = *r.DeliveryFee
		}
		ctx = models.DeliveryContext{
			Name:    strings.TrimSpace(r.Name),
			Phone:   strings.TrimSpace(r.Phone),
			Address: strings.TrimSpace(r.Address),
			Fee:     fee,
		}
	default:
		return nil, apperror.Validationf("unknown order type %q", r.Type)
	}
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	return ctx, nil
}

// OrderItems converts the request lines. A missing price stays zero for the
// caller to resolve from the catalog.
func (r OrderRequest) OrderItems() []models.OrderItem {
	items := make([]models.OrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		price := decimal.Zero
		if it.Price != nil {
			price = *it.Price
		}
		items = append(items, models.OrderItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     price,
			Quantity:  it.Quantity,
			Notes:     it.Notes,
		})
	}
	return items
}

type ItemResponse struct {
	Index     int             `json:"index"`
	ID        string          `json:"id"`
	ProductID *uint           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Notes     string          `json:"notes"`
	Prepared  bool            `json:"prepared"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	Type          string              `json:"type"`
	Customer      string              `json:"customer"`
	Context       models.OrderContext `json:"context"`
	Items         []ItemResponse      `json:"items"`
	Status        string              `json:"status"`
	Priority      string              `json:"priority"`
	Total         decimal.Decimal     `json:"total"`
	Paid          bool                `json:"paid"`
	PaymentMethod *string             `json:"payment_method"`
	PaidAt        *string             `json:"paid_at"`
	CancelReason  string              `json:"cancel_reason,omitempty"`
	Time          string              `json:"time"`
	ElapsedTime   int                 `json:"elapsed_time"` // minutes since creation
	CreatedAt     string              `json:"created_at"`
}

func ToResponse(o models.Order, now time.Time) OrderResponse {
	items := make([]ItemResponse, 0, len(o.Items))
	for i, it := range o.Items {
		items = append(items, ItemResponse{
			Index:     i,
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal(),
			Notes:     it.Notes,
			Prepared:  it.Prepared,
		})
	}

	res := OrderResponse{
		ID:           o.ID,
		Type:         string(o.Type),
		Customer:     o.Customer,
		Context:      o.Context,
		Items:        items,
		Status:       string(o.Status),
		Priority:     string(o.Priority),
		Total:        o.Total,
		Paid:         o.Paid,
		CancelReason: o.CancelReason,
		Time:         o.Time(),
		ElapsedTime:  o.ElapsedMinutes(now),
		CreatedAt:    o.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if o.PaymentMethod != nil {
		m := string(*o.PaymentMethod)
		res.PaymentMethod = &m
	}
	if o.PaidAt != nil {
		t := o.PaidAt.Format("2006-01-02 15:04:05")
		res.PaidAt = &t
	}
	return res
}

func ToResponses(orders []models.Order, now time.Time) []OrderResponse {
	res := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		res = append(res, ToResponse(o, now))
	}
	return res
}

// IDParam reads an order id from the path. "7", "007" and "%23007" all work.
func IDParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	return raw
}
