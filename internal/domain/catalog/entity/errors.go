package entity

import "errors"

// Domain errors for the catalog
var (
	ErrServiceNotFound  = errors.New("service not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidListing   = errors.New("invalid listing")
)
