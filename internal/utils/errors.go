package utils

import (
	"errors"
	"strings"
)

// Common application errors used across services.
var (
	ErrValidation           = errors.New("VALIDATION_ERROR")
	ErrInvalidCode          = errors.New("INVALID_CODE")
	ErrExpiredCode          = errors.New("EXPIRED_CODE")
	ErrSubscriptionNotFound = errors.New("SUBSCRIPTION_NOT_FOUND")
	ErrUserNotFound         = errors.New("USER_NOT_FOUND")
	ErrListingNotFound      = errors.New("LISTING_NOT_FOUND")
	ErrStoreFailure         = errors.New("STORE_FAILURE")
	ErrMediaFailure         = errors.New("MEDIA_FAILURE")
	ErrStorageDisabled      = errors.New("STORAGE_NOT_CONFIGURED")
)

// HumanMessage strips the leading sentinel category from a wrapped error so
// that handlers can surface the remainder as the caller-facing message.
func HumanMessage(err error) string {
	msg := err.Error()
	if _, rest, ok := strings.Cut(msg, ": "); ok && rest != "" {
		return rest
	}
	return msg
}
