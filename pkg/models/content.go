package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContentType string

const (
	ContentTypeEA   ContentType = "ea"
	ContentTypeFile ContentType = "file"
)

type ContentStatus string

const (
	ContentStatusPublished ContentStatus = "published"
	ContentStatusDelisted  ContentStatus = "delisted"
)

// Content is a marketplace catalog row: an EA script or file asset offered for
// coins. The purchase flow needs the seller, the price and the content type
// (the type selects the commission rate).
type Content struct {
	ID         string        `gorm:"type:uuid;primary_key" json:"id"`
	SellerID   string        `gorm:"type:uuid;not null;index" json:"seller_id"`
	Title      string        `gorm:"type:varchar(255);not null" json:"title"`
	Type       ContentType   `gorm:"column:content_type;type:varchar(20);not null;default:'ea'" json:"type"`
	PriceCoins int64         `gorm:"not null" json:"price_coins"`
	FileKey    string        `gorm:"type:varchar(255)" json:"file_key,omitempty"`
	Status     ContentStatus `gorm:"type:varchar(20);not null;default:'published'" json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (c *Content) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
