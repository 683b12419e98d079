package models

import "gorm.io/gorm"

// Product is a catalogue entry edited from the dashboard. Images are hosted
// URLs kept in display order.
type Product struct {
	gorm.Model
	Title       string   `gorm:"not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	Images      []string `gorm:"serializer:json" json:"images"`
	CreatedBy   string   `gorm:"index" json:"createdBy"`
}
