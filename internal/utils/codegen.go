package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	codeMin  = 100000
	codeSpan = 900000

	subscriberMin  = 100000000
	subscriberSpan = 900000000
)

// GenerateVerificationCode returns a uniform random 6-digit numeric code in
// [100000, 999999]. The lower bound guarantees no leading zero.
func GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%d", codeMin+n.Int64()), nil
}

// MintSubscriberNumber draws uniform random 9-digit subscriber numbers and
// checks each against exists until an unused one is found or maxAttempts draws
// have collided. On exhaustion it degrades to a deterministic value derived
// from now, trading strict uniqueness for liveness; the store's unique index
// is the backstop for that residual collision.
func MintSubscriberNumber(exists func(string) (bool, error), maxAttempts int, now time.Time) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		n, err := rand.Int(rand.Reader, big.NewInt(subscriberSpan))
		if err != nil {
			return "", fmt.Errorf("failed to generate subscriber number: %w", err)
		}
		candidate := fmt.Sprintf("%d", subscriberMin+n.Int64())

		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	return fmt.Sprintf("%d", now.UnixMilli()%subscriberSpan+subscriberMin), nil
}
