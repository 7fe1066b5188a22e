package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatus is the fulfillment stage of an order's preparation pipeline.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid reports whether s is one of the known fulfillment statuses.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// InFlightOrderStatuses are the statuses of orders that still need staff attention.
var InFlightOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
}

// PaymentStatus tracks money collection, independent of fulfillment.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// IsValid reports whether s is one of the known payment statuses.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// PaymentMethod is how the customer chose to pay.
// Card, Hubtel and Paystack exist as stored values but only cash and
// mobile money are accepted when initiating a payment.
type PaymentMethod string

const (
	PaymentMethodCash        PaymentMethod = "cash"
	PaymentMethodMobileMoney PaymentMethod = "mobile_money"
	PaymentMethodCard        PaymentMethod = "card"
	PaymentMethodHubtel      PaymentMethod = "hubtel"
	PaymentMethodPaystack    PaymentMethod = "paystack"
)

// Order represents a customer order for live poultry products
type Order struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	OrderNumber string  `gorm:"uniqueIndex;not null" json:"order_number"`
	CustomerID  *uint   `gorm:"index" json:"customer_id"` // nullable, set when a registered customer ordered
	Customer    *User   `gorm:"foreignKey:CustomerID" json:"-"`
	// Contact details are snapshotted at order time and never re-derived
	// from the customer record.
	CustomerName  string  `gorm:"not null" json:"customer_name"`
	CustomerPhone string  `gorm:"not null" json:"customer_phone"`
	CustomerEmail *string `json:"customer_email"`

	Status      OrderStatus `gorm:"not null;default:'pending'" json:"status"`
	TotalAmount float64     `gorm:"not null" json:"total_amount"` // fixed at creation, never recomputed

	PaymentStatus    PaymentStatus  `gorm:"not null;default:'pending'" json:"payment_status"`
	PaymentMethod    *PaymentMethod `json:"payment_method"`
	PaymentReference *string        `json:"payment_reference"`

	Notes      *string    `gorm:"type:text" json:"notes"`
	PickupTime *time.Time `json:"pickup_time"`

	Items []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`

	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at"` // set only when the order reaches completed
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem is one product-quantity-price snapshot within an order.
// Unit price and subtotal are fixed at creation even if the catalog
// price changes later.
type OrderItem struct {
	ID            uint     `gorm:"primaryKey" json:"id"`
	OrderID       uint     `gorm:"not null;index" json:"order_id"`
	ProductID     uint     `gorm:"not null;index" json:"product_id"`
	Product       *Product `gorm:"foreignKey:ProductID" json:"-"`
	ProductName   string   `gorm:"-" json:"product_name,omitempty"` // computed from the preloaded product
	Quantity      int      `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice     float64  `gorm:"not null" json:"unit_price"`
	Customization *string  `gorm:"type:text" json:"customization"`
	Subtotal      float64  `gorm:"not null" json:"subtotal"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// AnnotateItems copies each preloaded product's display name onto its item
// so API responses carry it without exposing the full product record.
func (o *Order) AnnotateItems() {
	for i := range o.Items {
		if o.Items[i].Product != nil {
			o.Items[i].ProductName = o.Items[i].Product.Name
		}
	}
}
