package models

import "errors"

// Sentinel errors of the core. Validation errors reject the operation
// outright; ErrInvalidCoordinate degrades classification to "review"
// instead of rejecting ingestion.
var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrMissingCustomer   = errors.New("missing customer phone")
	ErrDuplicateDraw     = errors.New("draw already completed for date")
)
