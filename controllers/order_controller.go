package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/asante-farms/chickorder-api/config"
	"github.com/asante-farms/chickorder-api/middleware"
	"github.com/asante-farms/chickorder-api/models"
	"github.com/asante-farms/chickorder-api/services"
	"github.com/gin-gonic/gin"
)

var orderService = services.NewOrderService()

// CreateOrderItemRequest is one requested line of a new order
type CreateOrderItemRequest struct {
	ProductID     uint    `json:"product_id" binding:"required"`
	Quantity      int     `json:"quantity" binding:"required,gt=0"`
	Customization *string `json:"customization"`
}

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	CustomerName  string                   `json:"customer_name" binding:"required"`
	CustomerPhone string                   `json:"customer_phone" binding:"required"`
	CustomerEmail *string                  `json:"customer_email" binding:"omitempty,email"`
	Items         []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
	PaymentMethod *models.PaymentMethod    `json:"payment_method"`
	Notes         *string                  `json:"notes"`
	PickupTime    *time.Time               `json:"pickup_time"`
}

// UpdateOrderStatusRequest represents the request body for a status transition
type UpdateOrderStatusRequest struct {
	Status        models.OrderStatus    `json:"status" binding:"required"`
	PaymentStatus *models.PaymentStatus `json:"payment_status"`
}

// currentUser loads the authenticated caller's user record, or nil for
// anonymous callers.
func currentUser(c *gin.Context) *models.User {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return nil
	}
	db := config.GetDB()
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil
	}
	return &user
}

// CreateOrder handles POST /api/v1/orders - creates a new order (public,
// linked to the customer account when the caller is authenticated)
func CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
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

	var customerID *uint
	if user := currentUser(c); user != nil {
		customerID = &user.ID
	}

	items := make([]services.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, services.OrderItemInput{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			Customization: item.Customization,
		})
	}

	db := config.GetDB()
	order, err := orderService.CreateOrder(db, services.CreateOrderInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Items:         items,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		PickupTime:    req.PickupTime,
	}, customerID)
	if err != nil {
		var notFound *services.ProductNotFoundError
		var unavailable *services.ProductUnavailableError
		switch {
		case errors.As(err, &notFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "PRODUCT_NOT_FOUND",
					"message": notFound.Error(),
				},
			})
		case errors.As(err, &unavailable):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "PRODUCT_UNAVAILABLE",
					"message": unavailable.Error(),
				},
			})
		case errors.Is(err, services.ErrEmptyOrder), errors.Is(err, services.ErrInvalidQuantity):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": err.Error(),
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to create order",
				},
			})
		}
		return
	}

	// Dispatch failure must never roll back the committed order.
	if notifier := services.GetNotificationService(); notifier != nil {
		notifier.NotifyOrderCreated(order)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// ListOrders handles GET /api/v1/orders - lists orders visible to the
// caller (customers see their own, admins see all)
func ListOrders(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	db := config.GetDB()
	query := db.Model(&models.Order{})
	if !user.IsAdmin {
		query = query.Where("customer_id = ?", user.ID)
	}

	if status := c.Query("status"); status != "" {
		if !models.OrderStatus(status).IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Unknown order status filter",
				},
			})
			return
		}
		query = query.Where("status = ?", status)
	}

	// Pagination
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to count orders",
			},
		})
		return
	}

	var orders []models.Order
	if err := query.
		Preload("Items.Product").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch orders",
			},
		})
		return
	}

	for i := range orders {
		orders[i].AnnotateItems()
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
		"pagination": gin.H{
			"page":       page,
			"limit":      limit,
			"total":      total,
			"totalPages": totalPages,
		},
	})
}

// GetOrder handles GET /api/v1/orders/:id - fetches a single order.
// Anonymous callers may track an order by ID; authenticated non-admins
// may only fetch their own orders.
func GetOrder(c *gin.Context) {
	db := config.GetDB()
	var order models.Order
	if err := db.Preload("Items.Product").First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	if user := currentUser(c); user != nil && !user.IsAdmin {
		if order.CustomerID == nil || *order.CustomerID != user.ID {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "You do not have permission to access this order",
				},
			})
			return
		}
	}

	order.AnnotateItems()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateOrderStatus handles PUT /api/v1/orders/:id/status - applies a
// fulfillment-status transition (admin only)
func UpdateOrderStatus(c *gin.Context) {
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

	var req UpdateOrderStatusRequest
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

	if !req.Status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Unknown order status",
			},
		})
		return
	}
	if req.PaymentStatus != nil && !req.PaymentStatus.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Unknown payment status",
			},
		})
		return
	}

	db := config.GetDB()
	order, err := orderService.UpdateOrderStatus(db, uint(orderID), req.Status, req.PaymentStatus)
	if err != nil {
		var invalid *services.InvalidTransitionError
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ORDER_NOT_FOUND",
					"message": "Order not found",
				},
			})
		case errors.As(err, &invalid):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TRANSITION",
					"message": invalid.Error(),
				},
			})
		case errors.Is(err, services.ErrConcurrentUpdate):
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CONFLICT",
					"message": err.Error(),
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to update order status",
				},
			})
		}
		return
	}

	if notifier := services.GetNotificationService(); notifier != nil {
		notifier.NotifyStatusUpdate(order)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
