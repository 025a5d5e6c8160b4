package models

import (
	"fmt"
	"strings"

	"pos-backend/internal/apperror"

	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderTypeTable    OrderType = "mesa"
	OrderTypePickup   OrderType = "retirada"
	OrderTypeDelivery OrderType = "delivery"
)

// OrderContext says who the order is for. Exactly one of TableContext,
// PickupContext or DeliveryContext.
type OrderContext interface {
	Type() OrderType
	Validate() error
	// Summary is the free text shown on tickets, e.g. "Mesa 4".
	Summary() string
}

type TableContext struct {
	Number int `json:"number"`
}

func (TableContext) Type() OrderType { return OrderTypeTable }

func (c TableContext) Validate() error {
	if c.Number <= 0 {
		return apperror.Validation("table number is required for dine-in orders")
	}
	return nil
}

func (c TableContext) Summary() string { return fmt.Sprintf("Mesa %d", c.Number) }

type PickupContext struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (PickupContext) Type() OrderType { return OrderTypePickup }

func (c PickupContext) Validate() error {
	return requireNamePhone(c.Name, c.Phone)
}

func (c PickupContext) Summary() string { return "Retirada - " + strings.TrimSpace(c.Name) }

type DeliveryContext struct {
	Name    string          `json:"name"`
	Phone   string          `json:"phone"`
	Address string          `json:"address"`
	Fee     decimal.Decimal `json:"fee"`
}

func (DeliveryContext) Type() OrderType { return OrderTypeDelivery }

func (c DeliveryContext) Validate() error {
	if err := requireNamePhone(c.Name, c.Phone); err != nil {
		return err
	}
	if strings.TrimSpace(c.Address) == "" {
		return apperror.Validation("address is required for delivery orders")
	}
	if c.Fee.IsNegative() {
		return apperror.Validation("delivery fee cannot be negative")
	}
	return nil
}

func (c DeliveryContext) Summary() string { return "Delivery - " + strings.TrimSpace(c.Name) }

func requireNamePhone(name, phone string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(phone) == "" {
		return apperror.Validation("customer name and phone are required for pickup and delivery orders")
	}
	return nil
}

// DeliveryFee is the fee carried by a delivery context, zero otherwise.
func DeliveryFee(ctx OrderContext) decimal.Decimal {
	if d, ok := ctx.(DeliveryContext); ok {
		return d.Fee
	}
	return decimal.Zero
}
