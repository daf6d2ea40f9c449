package model

import "errors"

var (
	ErrItemNotFound       = errors.New("item not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidPage        = errors.New("invalid page")
	ErrBackendUnavailable = errors.New("backend unavailable")
)
