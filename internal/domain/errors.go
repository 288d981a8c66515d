package domain

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation failed")
	ErrForbidden              = errors.New("forbidden")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrRateLimited            = errors.New("rate limit exceeded")
	ErrUpstream               = errors.New("upstream failure")

	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
	ErrAlreadyClaimed      = errors.New("booking already claimed")
	ErrNotDecorator        = errors.New("account is not a decorator")
	ErrNotPending          = errors.New("booking has no pending claim")
	ErrDecoratorBusy       = errors.New("decorator is busy")
	ErrAccountBusy         = errors.New("account holds an active booking")
	ErrInvalidStageCode    = errors.New("invalid stage update code")
	ErrStageOrder          = errors.New("stage transition out of order")
)
