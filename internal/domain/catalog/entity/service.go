package entity

import (
	"time"

	"github.com/google/uuid"
)

// PriceType represents how a service listing is priced
type PriceType string

const (
	PriceTypeHourly     PriceType = "hourly"
	PriceTypeFixed      PriceType = "fixed"
	PriceTypeNegotiable PriceType = "negotiable"
)

// Category groups service listings
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon,omitempty"`
	Color       string    `json:"color,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Service is one provider listing in the marketplace
type Service struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	CategoryID   uuid.UUID `json:"category_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Price        float64   `json:"price"`
	PriceType    PriceType `json:"price_type"`
	Location     string    `json:"location,omitempty"`
	Images       []string  `json:"images,omitempty"`
	Availability bool      `json:"availability"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ServiceUpdate is a partial listing edit; nil fields are left unchanged
type ServiceUpdate struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Price        *float64   `json:"price,omitempty"`
	PriceType    *PriceType `json:"price_type,omitempty"`
	Location     *string    `json:"location,omitempty"`
	Images       []string   `json:"images,omitempty"`
	Availability *bool      `json:"availability,omitempty"`
}

// ValidPriceType reports whether t is a known pricing mode
func ValidPriceType(t PriceType) bool {
	switch t {
	case PriceTypeHourly, PriceTypeFixed, PriceTypeNegotiable:
		return true
	}
	return false
}
