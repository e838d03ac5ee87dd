package domain

import "errors"

var (
	ErrInvalidLineItem   = errors.New("invalid line item")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("conflict")
	ErrUnavailable       = errors.New("service unavailable")
)
