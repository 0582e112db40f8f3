package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidTopo  = errors.New("invalid topo line")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
)
