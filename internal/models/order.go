package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusAguardando OrderStatus = "Aguardando"
	StatusEmPreparo  OrderStatus = "Em preparo"
	StatusPronto     OrderStatus = "Pronto"
	StatusEntregue   OrderStatus = "Entregue"
	StatusCancelado  OrderStatus = "Cancelado"
)

var statusRank = map[OrderStatus]int{
	StatusAguardando: 0,
	StatusEmPreparo:  1,
	StatusPronto:     2,
	StatusEntregue:   3,
}

// ParseOrderStatus accepts the display value or the compact "EmPreparo" spelling.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "aguardando":
		return StatusAguardando, true
	case "empreparo":
		return StatusEmPreparo, true
	case "pronto":
		return StatusPronto, true
	case "entregue":
		return StatusEntregue, true
	case "cancelado":
		return StatusCancelado, true
	}
	return "", false
}

// Rank orders the forward statuses; Cancelado has no rank.
func (s OrderStatus) Rank() (int, bool) {
	r, ok := statusRank[s]
	return r, ok
}

func (s OrderStatus) Terminal() bool {
	return s == StatusEntregue || s == StatusCancelado
}

type Priority string

const (
	PriorityNormal  Priority = "Normal"
	PriorityUrgente Priority = "Urgente"
)

func (p Priority) Valid() bool {
	return p == PriorityNormal || p == PriorityUrgente
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "Cash"
	PaymentCard PaymentMethod = "Card"
	PaymentPIX  PaymentMethod = "PIX"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentPIX:
		return true
	}
	return false
}

type OrderItem struct {
	ID        string          `json:"id"`
	ProductID *uint           `json:"product_id,omitempty"` // nil for ad-hoc lines
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Notes     string          `json:"notes"`
	Prepared  bool            `json:"prepared"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID              string          `json:"id"` // "#001"
	Seq             int             `json:"seq"`
	EstablishmentID uint            `json:"establishment_id"`
	Type            OrderType       `json:"type"`
	Context         OrderContext    `json:"context"`
	Customer        string          `json:"customer"`
	Items           []OrderItem     `json:"items"`
	Status          OrderStatus     `json:"status"`
	Priority        Priority        `json:"priority"`
	Total           decimal.Decimal `json:"total"`
	Paid            bool            `json:"paid"`
	PaymentMethod   *PaymentMethod  `json:"payment_method"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	CancelReason    string          `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func FormatOrderID(seq int) string {
	return fmt.Sprintf("#%03d", seq)
}

// ParseOrderID accepts "#007", "007" or "7" and returns the canonical id.
func ParseOrderID(raw string) (string, bool) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "#")
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return "", false
	}
	return FormatOrderID(n), true
}

// Time is the HH:MM the order was placed.
func (o *Order) Time() string {
	return o.CreatedAt.Format("15:04")
}

func (o *Order) ElapsedMinutes(now time.Time) int {
	if now.Before(o.CreatedAt) {
		return 0
	}
	return int(now.Sub(o.CreatedAt) / time.Minute)
}

func (o *Order) InKitchen() bool {
	return o.Status == StatusAguardando || o.Status == StatusEmPreparo
}

func (o *Order) PendingPayment() bool {
	return o.Status == StatusEntregue && !o.Paid
}

// ComputeTotal is the item subtotal plus the delivery fee, if any.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	if o.Context != nil {
		total = total.Add(DeliveryFee(o.Context))
	}
	return total
}

// Clone copies the order deep enough that callers cannot mutate stored state.
func (o *Order) Clone() Order {
	c := *o
	c.Items = make([]OrderItem, len(o.Items))
	for i, it := range o.Items {
		if it.ProductID != nil {
			pid := *it.ProductID
			it.ProductID = &pid
		}
		c.Items[i] = it
	}
	if o.PaymentMethod != nil {
		m := *o.PaymentMethod
		c.PaymentMethod = &m
	}
	if o.PaidAt != nil {
		t := *o.PaidAt
		c.PaidAt = &t
	}
	return c
}
