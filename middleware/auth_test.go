package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/asante-farms/chickorder-api/config"
	"github.com/asante-farms/chickorder-api/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		TokenExpiryMinutes: 30,
	}
}

func setupAuthTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func protectedRouter(cfg *config.Config, handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	chain := append([]gin.HandlerFunc{}, handlers...)
	chain = append(chain, func(c *gin.Context) {
		userID, err := GetUserID(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "user_id": userID})
	})
	router.GET("/protected", chain...)
	return router
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken(cfg, 42)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	userID, err := parseToken(cfg, token)
	assert.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestRequireAuth(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{
			name:           "missing header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "malformed header",
			authHeader:     "NotBearer abc",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "garbage token",
			authHeader:     "Bearer not.a.token",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "valid token",
			authHeader: func() string {
				token, _ := GenerateToken(cfg, 7)
				return "Bearer " + token
			}(),
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := protectedRouter(cfg, RequireAuth(cfg))

			req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	cfg := testConfig()

	claims := jwt.RegisteredClaims{
		Subject:   "7",
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	assert.NoError(t, err)

	router := protectedRouter(cfg, RequireAuth(cfg))
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthRejectsWrongSecret(t *testing.T) {
	cfg := testConfig()
	otherCfg := &config.Config{JWTSecret: "other-secret", TokenExpiryMinutes: 30}

	token, err := GenerateToken(otherCfg, 7)
	assert.NoError(t, err)

	router := protectedRouter(cfg, RequireAuth(cfg))
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	cfg := testConfig()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/maybe", OptionalAuth(cfg), func(c *gin.Context) {
		if userID, err := GetUserID(c); err == nil {
			c.JSON(http.StatusOK, gin.H{"user_id": userID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": nil})
	})

	t.Run("anonymous passes through", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/maybe", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":null`)
	})

	t.Run("invalid token treated as anonymous", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/maybe", nil)
		req.Header.Set("Authorization", "Bearer junk")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":null`)
	})

	t.Run("valid token identifies user", func(t *testing.T) {
		token, _ := GenerateToken(cfg, 11)
		req, _ := http.NewRequest(http.MethodGet, "/maybe", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":11`)
	})
}

func TestRequireAdmin(t *testing.T) {
	cfg := testConfig()
	db := setupAuthTestDB(t)
	config.SetDB(db)

	admin := models.User{Name: "Admin", Phone: "+233200000001", IsAdmin: true, IsActive: true}
	customer := models.User{Name: "Customer", Phone: "+233200000002", IsAdmin: false, IsActive: true}
	inactiveAdmin := models.User{Name: "Gone", Phone: "+233200000003", IsAdmin: true, IsActive: false}
	db.Create(&admin)
	db.Create(&customer)
	db.Create(&inactiveAdmin)

	tests := []struct {
		name           string
		userID         uint
		expectedStatus int
	}{
		{"active admin allowed", admin.ID, http.StatusOK},
		{"customer forbidden", customer.ID, http.StatusForbidden},
		{"inactive admin forbidden", inactiveAdmin.ID, http.StatusForbidden},
		{"unknown user rejected", 99999, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(cfg, tt.userID)
			assert.NoError(t, err)

			router := protectedRouter(cfg, RequireAuth(cfg), RequireAdmin())
			req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
