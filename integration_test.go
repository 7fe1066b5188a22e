package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/asante-farms/chickorder-api/config"
	"github.com/asante-farms/chickorder-api/middleware"
	"github.com/asante-farms/chickorder-api/models"
	"github.com/asante-farms/chickorder-api/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupIntegrationEnv wires the full application against an in-memory
// database with the real router, real JWT middleware, and mock gateways.
func setupIntegrationEnv(t *testing.T) (*gin.Engine, *gorm.DB, *config.Config) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	config.SetDB(db)

	cfg := &config.Config{
		JWTSecret:          "integration-secret",
		TokenExpiryMinutes: 30,
		GoEnv:              "test",
		Port:               "0",
	}
	config.SetConfig(cfg)

	services.SetPaymentService(services.NewPaymentService(cfg))
	notifier := services.NewNotificationService(db, services.NewMockMessageSender())
	services.SetNotificationService(notifier)
	t.Cleanup(func() {
		notifier.Close()
		services.SetNotificationService(nil)
		services.SetPaymentService(nil)
	})

	gin.SetMode(gin.TestMode)
	return setupRouter(cfg), db, cfg
}

func loginToken(t *testing.T, db *gorm.DB, cfg *config.Config, phone string, isAdmin bool) string {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	hashStr := string(hash)
	user := models.User{
		Name:         "Integration User",
		Phone:        phone,
		PasswordHash: &hashStr,
		IsAdmin:      isAdmin,
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	token, err := middleware.GenerateToken(cfg, user.ID)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

func doJSON(router *gin.Engine, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Response is not valid JSON: %v (%s)", err, w.Body.String())
	}
	return response
}

// TestOrderLifecycleIntegration walks a complete order through the API:
// catalog setup, customer order, payment, every fulfillment step, and the
// dashboard reflecting it all.
func TestOrderLifecycleIntegration(t *testing.T) {
	router, db, cfg := setupIntegrationEnv(t)

	adminToken := loginToken(t, db, cfg, "+233200000001", true)
	customerToken := loginToken(t, db, cfg, "+233200000002", false)

	// Admin stocks the catalog
	w := doJSON(router, http.MethodPost, "/api/v1/products", adminToken, map[string]interface{}{
		"name":     "Broiler Chicken",
		"price":    130.0,
		"category": "broiler",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	productID := decode(t, w)["data"].(map[string]interface{})["id"].(float64)

	// Catalog is publicly visible
	w = doJSON(router, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"].([]interface{}), 1)

	// Customer places an order
	w = doJSON(router, http.MethodPost, "/api/v1/orders", customerToken, map[string]interface{}{
		"customer_name":  "Ama Mensah",
		"customer_phone": "+233200000002",
		"items": []map[string]interface{}{
			{"product_id": productID, "quantity": 3},
		},
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	orderData := decode(t, w)["data"].(map[string]interface{})
	orderID := orderData["id"].(float64)
	assert.Equal(t, 390.0, orderData["total_amount"])
	assert.Equal(t, "pending", orderData["status"])

	// Customer initiates a cash payment
	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/orders/%.0f/payment", orderID), "", map[string]interface{}{
		"payment_method": "cash",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	paymentData := decode(t, w)["data"].(map[string]interface{})
	assert.Contains(t, paymentData["payment_reference"], "CASH-")

	// Customer cannot drive fulfillment
	w = doJSON(router, http.MethodPut, fmt.Sprintf("/api/v1/orders/%.0f/status", orderID), customerToken, map[string]interface{}{
		"status": "confirmed",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin walks the order through the pipeline
	for _, status := range []string{"confirmed", "preparing", "ready"} {
		w = doJSON(router, http.MethodPut, fmt.Sprintf("/api/v1/orders/%.0f/status", orderID), adminToken, map[string]interface{}{
			"status": status,
		})
		assert.Equal(t, http.StatusOK, w.Code, "transition to %s", status)
	}

	// Skipping backwards is rejected
	w = doJSON(router, http.MethodPut, fmt.Sprintf("/api/v1/orders/%.0f/status", orderID), adminToken, map[string]interface{}{
		"status": "preparing",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Admin collects the cash and completes the order
	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/payments/complete/%.0f", orderID), adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPut, fmt.Sprintf("/api/v1/orders/%.0f/status", orderID), adminToken, map[string]interface{}{
		"status": "completed",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	completed := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "completed", completed["status"])
	assert.NotNil(t, completed["completed_at"])

	// The dashboard reflects the finished order
	w = doJSON(router, http.MethodGet, "/api/v1/admin/dashboard", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["total_orders"])
	assert.Equal(t, float64(0), stats["pending_orders"])
	assert.Equal(t, float64(1), stats["completed_orders"])
	assert.Equal(t, 390.0, stats["total_revenue"])

	// Customer sees their own order history
	w = doJSON(router, http.MethodGet, "/api/v1/orders", customerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"].([]interface{}), 1)

	// Notifications were recorded for the confirmation and each transition
	var notificationCount int64
	db.Model(&models.Notification{}).Count(&notificationCount)
	assert.Equal(t, int64(5), notificationCount)
}

// TestAccessControlIntegration verifies the route-level permission matrix
func TestAccessControlIntegration(t *testing.T) {
	router, db, cfg := setupIntegrationEnv(t)

	adminToken := loginToken(t, db, cfg, "+233200000001", true)
	customerToken := loginToken(t, db, cfg, "+233200000002", false)

	tests := []struct {
		name           string
		method         string
		path           string
		token          string
		payload        interface{}
		expectedStatus int
	}{
		{"anonymous cannot list orders", http.MethodGet, "/api/v1/orders", "", nil, http.StatusUnauthorized},
		{"customer cannot create products", http.MethodPost, "/api/v1/products", customerToken,
			map[string]interface{}{"name": "X", "price": 1.0}, http.StatusForbidden},
		{"customer cannot see the dashboard", http.MethodGet, "/api/v1/admin/dashboard", customerToken, nil, http.StatusForbidden},
		{"customer cannot verify payments", http.MethodPost, "/api/v1/payments/verify/1", customerToken, nil, http.StatusForbidden},
		{"anonymous cannot read the dashboard", http.MethodGet, "/api/v1/admin/dashboard", "", nil, http.StatusUnauthorized},
		{"admin reads the pending queue", http.MethodGet, "/api/v1/admin/orders/pending", adminToken, nil, http.StatusOK},
		{"health is public", http.MethodGet, "/api/v1/health", "", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, tt.method, tt.path, tt.token, tt.payload)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
