package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/asante-farms/chickorder-api/models"
	"gorm.io/gorm"
)

const (
	// orderNumberAlphabet is the character set for the random order-number suffix
	orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// orderNumberSuffixLen is the length of the random suffix
	orderNumberSuffixLen = 6
	// orderNumberAttempts bounds regeneration retries on a collision
	orderNumberAttempts = 5
)

// validTransitions is the fulfillment state machine: each status maps to
// the set of statuses an order may move to. Completed and cancelled are
// terminal.
var validTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing: {models.OrderStatusReady, models.OrderStatusCancelled},
	models.OrderStatusReady:     {models.OrderStatusCompleted},
	models.OrderStatusCompleted: {},
	models.OrderStatusCancelled: {},
}

// CanTransition reports whether an order may move from one fulfillment
// status to another.
func CanTransition(from, to models.OrderStatus) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// OrderItemInput is one requested line of a new order.
type OrderItemInput struct {
	ProductID     uint
	Quantity      int
	Customization *string
}

// CreateOrderInput carries everything needed to construct an order aggregate.
type CreateOrderInput struct {
	CustomerName  string
	CustomerPhone string
	CustomerEmail *string
	Items         []OrderItemInput
	PaymentMethod *models.PaymentMethod
	Notes         *string
	PickupTime    *time.Time
}

// OrderService owns order construction and the fulfillment state machine
type OrderService struct{}

// NewOrderService creates a new order service instance
func NewOrderService() *OrderService {
	return &OrderService{}
}

// GenerateOrderNumber generates a human-readable order number of the form
// CHK-YYYYMMDD-XXXXXX. Uniqueness is enforced by the storage constraint;
// CreateOrder regenerates on collision.
func (s *OrderService) GenerateOrderNumber() string {
	suffix := make([]byte, orderNumberSuffixLen)
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform entropy source is
			// broken; fall back to a time-derived index.
			n = big.NewInt(time.Now().UnixNano() % int64(len(orderNumberAlphabet)))
		}
		suffix[i] = orderNumberAlphabet[n.Int64()]
	}
	return fmt.Sprintf("CHK-%s-%s", time.Now().Format("20060102"), string(suffix))
}

// CreateOrder resolves the requested products, snapshots their current
// prices into order items, and persists the order header together with
// every item as a single atomic unit. Initial statuses are always
// pending/pending. On an order-number collision the whole transaction is
// retried with a fresh number.
func (s *OrderService) CreateOrder(db *gorm.DB, input CreateOrderInput, customerID *uint) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	var totalAmount float64
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, line := range input.Items {
		if line.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}

		var product models.Product
		if err := db.First(&product, line.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &ProductNotFoundError{ProductID: line.ProductID}
			}
			return nil, err
		}
		if !product.IsAvailable {
			return nil, &ProductUnavailableError{Name: product.Name}
		}

		subtotal := product.Price * float64(line.Quantity)
		totalAmount += subtotal
		items = append(items, models.OrderItem{
			ProductID:     product.ID,
			Quantity:      line.Quantity,
			UnitPrice:     product.Price, // snapshot, not a live reference
			Customization: line.Customization,
			Subtotal:      subtotal,
		})
	}

	var created models.Order
	for attempt := 0; ; attempt++ {
		order := models.Order{
			OrderNumber:   s.GenerateOrderNumber(),
			CustomerID:    customerID,
			CustomerName:  input.CustomerName,
			CustomerPhone: input.CustomerPhone,
			CustomerEmail: input.CustomerEmail,
			Status:        models.OrderStatusPending,
			TotalAmount:   totalAmount,
			PaymentStatus: models.PaymentStatusPending,
			PaymentMethod: input.PaymentMethod,
			Notes:         input.Notes,
			PickupTime:    input.PickupTime,
			Items:         cloneItems(items),
		}

		// Header and items are written in one transaction so no partial
		// order is ever observable.
		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&order).Error
		})
		if err == nil {
			created = order
			break
		}
		if isUniqueViolation(err) && attempt < orderNumberAttempts-1 {
			continue
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Reload with items and products to return the full aggregate
	if err := db.Preload("Items.Product").First(&created, created.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load created order: %w", err)
	}
	created.AnnotateItems()
	return &created, nil
}

// UpdateOrderStatus validates and applies a fulfillment-status transition,
// optionally setting the payment status in the same write. The payment
// status is an independent axis and never participates in the transition
// legality check. The guarded update (matching the status the legality
// check saw) runs inside one transaction so a concurrent transition cannot
// be applied against stale state.
func (s *OrderService) UpdateOrderStatus(db *gorm.DB, orderID uint, status models.OrderStatus, paymentStatus *models.PaymentStatus) (*models.Order, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if !CanTransition(order.Status, status) {
			return &InvalidTransitionError{From: order.Status, To: status}
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":     status,
			"updated_at": now,
		}
		if status == models.OrderStatusCompleted {
			updates["completed_at"] = now
		}
		if paymentStatus != nil {
			updates["payment_status"] = *paymentStatus
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, order.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Another transition landed between our read and write.
			return ErrConcurrentUpdate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var order models.Order
	if err := db.Preload("Items.Product").First(&order, orderID).Error; err != nil {
		return nil, fmt.Errorf("failed to load updated order: %w", err)
	}
	order.AnnotateItems()
	return &order, nil
}

// cloneItems copies the computed line items so each creation attempt gets
// fresh rows without primary keys from a failed attempt.
func cloneItems(items []models.OrderItem) []models.OrderItem {
	out := make([]models.OrderItem, len(items))
	copy(out, items)
	return out
}

// isUniqueViolation detects a unique-constraint error from either
// PostgreSQL or SQLite.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique")
}
