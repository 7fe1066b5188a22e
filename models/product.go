package models

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a sellable item in the catalog
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;index" json:"name"`
	Description *string        `gorm:"type:text" json:"description"`
	Price       float64        `gorm:"not null;check:price >= 0" json:"price"`
	ImageS3Key  *string        `json:"image_s3_key,omitempty"`       // nullable, S3 key for the product photo
	ImageURL    *string        `gorm:"-" json:"image_url,omitempty"` // computed field, presigned URL for the photo
	// No gorm default: a zero-value false would be silently replaced by
	// a column default on insert. Creation paths set this explicitly.
	IsAvailable bool           `gorm:"not null" json:"is_available"`
	Category    *string        `json:"category"` // free text, e.g. "broilers", "layers"
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}
