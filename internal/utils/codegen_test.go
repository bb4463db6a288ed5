package utils

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sixDigits = regexp.MustCompile(`^[1-9][0-9]{5}$`)
var nineDigits = regexp.MustCompile(`^[1-9][0-9]{8}$`)

func TestGenerateVerificationCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateVerificationCode()
		require.NoError(t, err)
		assert.Regexp(t, sixDigits, code, "code must be exactly 6 digits with no leading zero")
	}
}

func TestMintSubscriberNumber_FirstDrawFree(t *testing.T) {
	calls := 0
	number, err := MintSubscriberNumber(func(string) (bool, error) {
		calls++
		return false, nil
	}, 10, time.Now())

	require.NoError(t, err)
	assert.Regexp(t, nineDigits, number)
	assert.Equal(t, 1, calls)
}

func TestMintSubscriberNumber_RetriesOnCollision(t *testing.T) {
	calls := 0
	number, err := MintSubscriberNumber(func(string) (bool, error) {
		calls++
		return calls < 4, nil
	}, 10, time.Now())

	require.NoError(t, err)
	assert.Regexp(t, nineDigits, number)
	assert.Equal(t, 4, calls)
}

func TestMintSubscriberNumber_FallbackAfterExhaustion(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	calls := 0
	number, err := MintSubscriberNumber(func(string) (bool, error) {
		calls++
		return true, nil
	}, 10, now)

	require.NoError(t, err)
	assert.Equal(t, 10, calls)
	assert.Regexp(t, nineDigits, number)
	// Deterministic value derived from the supplied instant.
	want := fmt.Sprintf("%d", now.UnixMilli()%900000000+100000000)
	assert.Equal(t, want, number)
}

func TestMintSubscriberNumber_PropagatesStoreError(t *testing.T) {
	storeErr := errors.New("connection reset")
	_, err := MintSubscriberNumber(func(string) (bool, error) {
		return false, storeErr
	}, 10, time.Now())

	assert.ErrorIs(t, err, storeErr)
}
