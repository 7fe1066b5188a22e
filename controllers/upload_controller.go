package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/asante-farms/chickorder-api/config"
	"github.com/asante-farms/chickorder-api/models"
	"github.com/asante-farms/chickorder-api/services"
	"github.com/asante-farms/chickorder-api/utils"
	"github.com/gin-gonic/gin"
)

// UploadProductImage handles POST /api/v1/products/:id/image - uploads a
// product photo and attaches it to the product (admin only)
func UploadProductImage(c *gin.Context) {
	imageService := services.GetImageService()
	if imageService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SERVICE_UNAVAILABLE",
				"message": "Image storage is not configured",
			},
		})
		return
	}

	db := config.GetDB()
	var product models.Product
	if err := db.First(&product, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PRODUCT_NOT_FOUND",
				"message": "Product not found",
			},
		})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "An image file is required",
			},
		})
		return
	}

	s3Key, err := imageService.UploadImage(fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    uploadErr.Code,
					"message": uploadErr.Message,
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_ERROR",
				"message": "Failed to upload image",
			},
		})
		return
	}

	// Best effort: a stale photo in the bucket is preferable to failing
	// the upload that already succeeded.
	if product.ImageS3Key != nil && *product.ImageS3Key != "" {
		if err := imageService.DeleteImage(*product.ImageS3Key); err != nil {
			log.Printf("Failed to delete old product image %s: %v", *product.ImageS3Key, err)
		}
	}

	if err := db.Model(&product).Update("image_s3_key", s3Key).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to save image reference",
			},
		})
		return
	}
	product.ImageS3Key = &s3Key

	annotateProductImage(&product)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    product,
	})
}
