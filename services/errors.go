package services

import (
	"errors"
	"fmt"

	"github.com/asante-farms/chickorder-api/models"
)

// Sentinel errors shared by the order and payment services.
var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrEmptyOrder            = errors.New("order must contain at least one item")
	ErrInvalidQuantity       = errors.New("item quantity must be at least 1")
	ErrConcurrentUpdate      = errors.New("order was modified concurrently, retry the operation")
	ErrMissingPaymentDetails = errors.New("order has no payment method or reference")
)

// ProductNotFoundError indicates a requested line referenced an unknown product.
type ProductNotFoundError struct {
	ProductID uint
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with id %d not found", e.ProductID)
}

// ProductUnavailableError indicates a requested product is flagged unavailable.
type ProductUnavailableError struct {
	Name string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is not available", e.Name)
}

// InvalidTransitionError indicates a fulfillment-status transition
// not present in the state machine's allowed-target set.
type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// UnsupportedPaymentMethodError indicates a payment method no provider accepts.
type UnsupportedPaymentMethodError struct {
	Method models.PaymentMethod
}

func (e *UnsupportedPaymentMethodError) Error() string {
	return fmt.Sprintf("unsupported payment method: %s. Only 'cash' and 'mobile_money' are supported", e.Method)
}
