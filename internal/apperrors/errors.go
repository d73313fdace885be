package apperrors

import (
	"errors"
)

var (
	ErrConfiguration = errors.New("configuration error")

	ErrFetch     = errors.New("failed to fetch orders")
	ErrPageCycle = errors.New("orders pagination loops back to a visited page")

	ErrAlertDispatch  = errors.New("failed to dispatch alert")
	ErrUpdateDispatch = errors.New("failed to dispatch order update")
)
