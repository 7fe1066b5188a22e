package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/asante-farms/chickorder-api/config"
	"github.com/asante-farms/chickorder-api/models"
	"github.com/asante-farms/chickorder-api/services"
	"github.com/gin-gonic/gin"
)

// InitiatePaymentRequest represents the request body for starting a payment
type InitiatePaymentRequest struct {
	PaymentMethod models.PaymentMethod `json:"payment_method" binding:"required"`
}

// InitiatePayment handles POST /api/v1/orders/:id/payment - starts payment
// collection for an order (public, the customer drives this)
func InitiatePayment(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Order ID must be an integer",
			},
		})
		return
	}

	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	paymentService := services.GetPaymentService()
	if paymentService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SERVICE_UNAVAILABLE",
				"message": "Payment service is not configured",
			},
		})
		return
	}

	db := config.GetDB()
	result, err := paymentService.InitiatePayment(db, uint(orderID), req.PaymentMethod)
	if err != nil {
		var unsupported *services.UnsupportedPaymentMethodError
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ORDER_NOT_FOUND",
					"message": "Order not found",
				},
			})
		case errors.As(err, &unsupported):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNSUPPORTED_PAYMENT_METHOD",
					"message": unsupported.Error(),
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "PAYMENT_ERROR",
					"message": "Failed to initiate payment",
				},
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// VerifyPayment handles POST /api/v1/payments/verify/:id - checks whether
// the order's payment cleared (admin only)
func VerifyPayment(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Order ID must be an integer",
			},
		})
		return
	}

	paymentService := services.GetPaymentService()
	if paymentService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SERVICE_UNAVAILABLE",
				"message": "Payment service is not configured",
			},
		})
		return
	}

	db := config.GetDB()
	result, err := paymentService.VerifyPayment(db, uint(orderID))
	if err != nil {
		var unsupported *services.UnsupportedPaymentMethodError
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ORDER_NOT_FOUND",
					"message": "Order not found",
				},
			})
		case errors.Is(err, services.ErrMissingPaymentDetails):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MISSING_PAYMENT_DETAILS",
					"message": err.Error(),
				},
			})
		case errors.As(err, &unsupported):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNSUPPORTED_PAYMENT_METHOD",
					"message": unsupported.Error(),
				},
			})
		default:
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "PAYMENT_ERROR",
					"message": "Payment verification failed",
				},
			})
		}
		return
	}

	var order models.Order
	if err := db.First(&order, uint(orderID)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch order after verification",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"order_id":            order.ID,
			"payment_reference":   order.PaymentReference,
			"payment_method":      order.PaymentMethod,
			"payment_status":      order.PaymentStatus,
			"verification_result": result,
		},
	})
}

// CompletePayment handles POST /api/v1/payments/complete/:id - marks an
// order's payment as collected without gateway verification (admin only)
func CompletePayment(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Order ID must be an integer",
			},
		})
		return
	}

	paymentService := services.GetPaymentService()
	if paymentService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SERVICE_UNAVAILABLE",
				"message": "Payment service is not configured",
			},
		})
		return
	}

	db := config.GetDB()
	order, err := paymentService.CompletePaymentManually(db, uint(orderID))
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ORDER_NOT_FOUND",
					"message": "Order not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to complete payment",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
