package services

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/asante-farms/chickorder-api/config"
	"github.com/asante-farms/chickorder-api/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func createTestOrder(t *testing.T, db *gorm.DB, orderNumber string) *models.Order {
	order := models.Order{
		OrderNumber:   orderNumber,
		CustomerName:  "Ama Mensah",
		CustomerPhone: "+233241234567",
		Status:        models.OrderStatusPending,
		TotalAmount:   260.0,
		PaymentStatus: models.PaymentStatusPending,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("Failed to create test order: %v", err)
	}
	return &order
}

func TestInitiatePaymentCash(t *testing.T) {
	db := setupOrderTestDB(t)
	service := NewPaymentService(&config.Config{})
	order := createTestOrder(t, db, "CHK-20250101-AAAAAA")

	result, err := service.InitiatePayment(db, order.ID, models.PaymentMethodCash)

	assert.NoError(t, err)
	assert.Equal(t, "CASH-CHK-20250101-AAAAAA", result.PaymentReference)
	assert.Equal(t, "pending", result.Status)

	var reloaded models.Order
	db.First(&reloaded, order.ID)
	assert.Equal(t, models.PaymentStatusProcessing, reloaded.PaymentStatus)
	assert.NotNil(t, reloaded.PaymentMethod)
	assert.Equal(t, models.PaymentMethodCash, *reloaded.PaymentMethod)
	assert.NotNil(t, reloaded.PaymentReference)
	assert.Equal(t, "CASH-CHK-20250101-AAAAAA", *reloaded.PaymentReference)
}

func TestInitiatePaymentUnsupportedMethod(t *testing.T) {
	db := setupOrderTestDB(t)
	service := NewPaymentService(&config.Config{})
	order := createTestOrder(t, db, "CHK-20250101-BBBBBB")

	for _, method := range []models.PaymentMethod{
		models.PaymentMethodCard,
		models.PaymentMethodHubtel,
		models.PaymentMethodPaystack,
	} {
		t.Run(string(method), func(t *testing.T) {
			_, err := service.InitiatePayment(db, order.ID, method)

			var unsupported *UnsupportedPaymentMethodError
			assert.ErrorAs(t, err, &unsupported)
			assert.Equal(t, method, unsupported.Method)

			// The order's payment fields stay untouched on rejection.
			var reloaded models.Order
			db.First(&reloaded, order.ID)
			assert.Equal(t, models.PaymentStatusPending, reloaded.PaymentStatus)
			assert.Nil(t, reloaded.PaymentMethod)
			assert.Nil(t, reloaded.PaymentReference)
		})
	}
}

func TestInitiatePaymentOrderNotFound(t *testing.T) {
	db := setupOrderTestDB(t)
	service := NewPaymentService(&config.Config{})

	_, err := service.InitiatePayment(db, 99999, models.PaymentMethodCash)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMobileMoneyWithoutCredentials(t *testing.T) {
	db := setupOrderTestDB(t)
	service := NewPaymentService(&config.Config{})
	order := createTestOrder(t, db, "CHK-20250101-CCCCCC")

	result, err := service.InitiatePayment(db, order.ID, models.PaymentMethodMobileMoney)

	assert.NoError(t, err)
	assert.Equal(t, "MOBILE-CHK-20250101-CCCCCC", result.PaymentReference)
	assert.Equal(t, "processing", result.Status)
	assert.Contains(t, result.Message, "USSD")
}

func TestMobileMoneyGatewaySuccess(t *testing.T) {
	db := setupOrderTestDB(t)
	order := createTestOrder(t, db, "CHK-20250101-DDDDDD")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/merchantaccount/onlinecheckout/invoice/create", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"invoice_id":"HUB-12345","invoice_url":"https://checkout.example.com/HUB-12345"}`)
	}))
	defer server.Close()

	service := NewPaymentService(&config.Config{
		HubtelClientID:     "client",
		HubtelClientSecret: "secret",
		HubtelAPIKey:       "apikey",
		HubtelBaseURL:      server.URL,
	})

	result, err := service.InitiatePayment(db, order.ID, models.PaymentMethodMobileMoney)

	assert.NoError(t, err)
	assert.Equal(t, "HUB-12345", result.PaymentReference)
	assert.NotNil(t, result.PaymentURL)
	assert.Equal(t, "https://checkout.example.com/HUB-12345", *result.PaymentURL)

	var reloaded models.Order
	db.First(&reloaded, order.ID)
	assert.Equal(t, "HUB-12345", *reloaded.PaymentReference)
}

func TestMobileMoneyGatewayDownDegradesLocally(t *testing.T) {
	db := setupOrderTestDB(t)
	order := createTestOrder(t, db, "CHK-20250101-EEEEEE")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	server.Close() // gateway unreachable

	service := NewPaymentService(&config.Config{
		HubtelClientID:     "client",
		HubtelClientSecret: "secret",
		HubtelAPIKey:       "apikey",
		HubtelBaseURL:      server.URL,
	})

	result, err := service.InitiatePayment(db, order.ID, models.PaymentMethodMobileMoney)

	// A dead gateway degrades to a local reference instead of failing.
	assert.NoError(t, err)
	assert.Equal(t, "MOBILE-CHK-20250101-EEEEEE", result.PaymentReference)
	assert.Equal(t, "processing", result.Status)

	var reloaded models.Order
	db.First(&reloaded, order.ID)
	assert.Equal(t, models.PaymentStatusProcessing, reloaded.PaymentStatus)
}

func TestVerifyPayment(t *testing.T) {
	db := setupOrderTestDB(t)
	service := NewPaymentService(&config.Config{})

	t.Run("missing payment details", func(t *testing.T) {
		order := createTestOrder(t, db, "CHK-20250101-FFFFFF")
		_, err := service.VerifyPayment(db, order.ID)
		assert.ErrorIs(t, err, ErrMissingPaymentDetails)
	})

	t.Run("verified payment is recorded", func(t *testing.T) {
		order := createTestOrder(t, db, "CHK-20250101-GGGGGG")
		_, err := service.InitiatePayment(db, order.ID, models.PaymentMethodCash)
		assert.NoError(t, err)

		result, err := service.VerifyPayment(db, order.ID)
		assert.NoError(t, err)
		assert.True(t, result.Verified)

		var reloaded models.Order
		db.First(&reloaded, order.ID)
		assert.Equal(t, models.PaymentStatusCompleted, reloaded.PaymentStatus)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := service.VerifyPayment(db, 99999)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestCompletePaymentManually(t *testing.T) {
	db := setupOrderTestDB(t)
	service := NewPaymentService(&config.Config{})

	order := createTestOrder(t, db, "CHK-20250101-HHHHHH")
	db.Model(order).Update("payment_status", models.PaymentStatusFailed)

	completed, err := service.CompletePaymentManually(db, order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, completed.PaymentStatus)

	var reloaded models.Order
	db.First(&reloaded, order.ID)
	assert.Equal(t, models.PaymentStatusCompleted, reloaded.PaymentStatus)

	_, err = service.CompletePaymentManually(db, 99999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
