package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("number already mapped")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrSendFailed      = errors.New("sms send failed")
	ErrNotAuthorized   = errors.New("not authorized")
)
