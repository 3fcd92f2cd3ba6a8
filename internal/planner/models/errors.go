package models

import "errors"

var (
	ErrInvalidGeometry      = errors.New("invalid geometry")
	ErrIllegalPlacement     = errors.New("illegal placement")
	ErrStaleReference       = errors.New("stale reference")
	ErrMissingCatalogEntry  = errors.New("missing catalog entry")
	ErrConfirmationRequired = errors.New("confirmation required")
)
