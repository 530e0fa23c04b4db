package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound                  = errors.New("entity not found")
	ErrAlreadyExists             = errors.New("entity already exists")
	ErrInvalidArgument           = errors.New("invalid argument")
	ErrOperationFailed           = errors.New("operation failed")
	ErrInvalidExecContext        = errors.New("invalid execution context")
	ErrReadDatabaseRow           = errors.New("failed to read database row")
	ErrTrialExpired              = errors.New("trial period has expired")
	ErrGenerationLimitReached    = errors.New("trial generation limit reached")
	ErrActiveSubscriptionExists  = errors.New("user already has an active subscription")
	ErrNoActiveSubscription      = errors.New("no active subscription")
	ErrPaymentDeclined           = errors.New("payment declined")
	ErrUnknownPaymentIntent      = errors.New("unknown payment intent")
	ErrLockNotAcquired           = errors.New("could not acquire lock")
	ErrSubscriptionNotCancelable = errors.New("subscription cannot be cancelled")
)
