package models

import (
	"time"

	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderPreparing, OrderReady, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodCard    PaymentMethod = "card"
	MethodPayPal  PaymentMethod = "paypal"
	MethodVoucher PaymentMethod = "voucher"
	MethodCash    PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCard, MethodPayPal, MethodVoucher, MethodCash:
		return true
	}
	return false
}

// OrderLine keeps the price the item had when the order was placed.
type OrderLine struct {
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	LineTotal  float64 `json:"line_total"`
}

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID            string        `bun:"id,pk" json:"id"`
	OrderNumber   string        `bun:"order_number,unique,notnull" json:"order_number"`
	UserID        string        `bun:"user_id,notnull" json:"user_id"`
	Lines         []OrderLine   `bun:"lines" json:"lines"`
	Total         float64       `bun:"total,notnull" json:"total"`
	Status        OrderStatus   `bun:"status,notnull" json:"status"`
	Paid          bool          `bun:"paid,notnull" json:"paid"`
	PaymentMethod PaymentMethod `bun:"payment_method,notnull" json:"payment_method"`
	Notes         string        `bun:"notes,nullzero" json:"notes,omitempty"`
	PickupTime    *time.Time    `bun:"pickup_time,nullzero" json:"pickup_time,omitempty"`
	CreatedAt     time.Time     `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt     time.Time     `bun:"updated_at,notnull" json:"updated_at"`
}

type OrderItemRequest struct {
	MenuItemID string `json:"menu_item_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,min=1"`
}

type CreateOrderRequest struct {
	Items         []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethod PaymentMethod      `json:"payment_method" validate:"required,oneof=card paypal voucher cash"`
	Notes         string             `json:"notes" validate:"max=500"`
	PickupTime    *time.Time         `json:"pickup_time"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=pending confirmed preparing ready delivered cancelled"`
}

type OrderFilter struct {
	UserID string
	Status OrderStatus
}
