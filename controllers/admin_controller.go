package controllers

import (
	"net/http"
	"time"

	"github.com/asante-farms/chickorder-api/config"
	"github.com/asante-farms/chickorder-api/models"
	"github.com/gin-gonic/gin"
)

// DashboardStats is the snapshot shown on the admin dashboard.
type DashboardStats struct {
	TotalOrders          int64   `json:"total_orders"`
	PendingOrders        int64   `json:"pending_orders"`
	CompletedOrders      int64   `json:"completed_orders"`
	TotalRevenue         float64 `json:"total_revenue"`
	TodayRevenue         float64 `json:"today_revenue"`
	AvgWaitMinutes       float64 `json:"avg_wait_minutes"`
	DigitalPaymentsRatio float64 `json:"digital_payments_ratio"`
}

// GetDashboardStats handles GET /api/v1/admin/dashboard - aggregates the
// operational numbers for the admin dashboard (admin only)
func GetDashboardStats(c *gin.Context) {
	db := config.GetDB()
	var stats DashboardStats

	if err := db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		dashboardError(c)
		return
	}

	// Pending covers every order still in flight, not just status=pending.
	if err := db.Model(&models.Order{}).
		Where("status IN ?", models.InFlightOrderStatuses).
		Count(&stats.PendingOrders).Error; err != nil {
		dashboardError(c)
		return
	}

	if err := db.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusCompleted).
		Count(&stats.CompletedOrders).Error; err != nil {
		dashboardError(c)
		return
	}

	// Revenue counts money actually collected, not order totals.
	if err := db.Model(&models.Order{}).
		Where("payment_status = ?", models.PaymentStatusCompleted).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&stats.TotalRevenue).Error; err != nil {
		dashboardError(c)
		return
	}

	startOfDay := time.Now().Truncate(24 * time.Hour)
	if err := db.Model(&models.Order{}).
		Where("payment_status = ? AND created_at >= ?", models.PaymentStatusCompleted, startOfDay).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&stats.TodayRevenue).Error; err != nil {
		dashboardError(c)
		return
	}

	var completed []models.Order
	if err := db.
		Where("status = ? AND completed_at IS NOT NULL", models.OrderStatusCompleted).
		Find(&completed).Error; err != nil {
		dashboardError(c)
		return
	}
	if len(completed) > 0 {
		var totalWait time.Duration
		for _, order := range completed {
			totalWait += order.CompletedAt.Sub(order.CreatedAt)
		}
		stats.AvgWaitMinutes = totalWait.Minutes() / float64(len(completed))
	}

	var paidOrders, digitalOrders int64
	if err := db.Model(&models.Order{}).
		Where("payment_status = ?", models.PaymentStatusCompleted).
		Count(&paidOrders).Error; err != nil {
		dashboardError(c)
		return
	}
	if err := db.Model(&models.Order{}).
		Where("payment_status = ? AND payment_method IS NOT NULL AND payment_method != ?",
			models.PaymentStatusCompleted, models.PaymentMethodCash).
		Count(&digitalOrders).Error; err != nil {
		dashboardError(c)
		return
	}
	if paidOrders > 0 {
		stats.DigitalPaymentsRatio = float64(digitalOrders) / float64(paidOrders) * 100
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

// ListPendingOrders handles GET /api/v1/admin/orders/pending - lists every
// in-flight order, oldest first so the kitchen works the backlog in order
// (admin only)
func ListPendingOrders(c *gin.Context) {
	db := config.GetDB()
	var orders []models.Order
	if err := db.
		Preload("Items.Product").
		Where("status IN ?", models.InFlightOrderStatuses).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		dashboardError(c)
		return
	}

	for i := range orders {
		orders[i].AnnotateItems()
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

func dashboardError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "DATABASE_ERROR",
			"message": "Failed to compute dashboard statistics",
		},
	})
}
