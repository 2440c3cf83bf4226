package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	window, err := ParseDateRange("2024-01-01", "2024-01-07")
	require.NoError(t, err)

	assert.True(t, window.Valid())
	assert.Equal(t, 7, window.Days())
}

func TestParseDateRangeRejectsGarbage(t *testing.T) {
	_, err := ParseDateRange("01/02/2024", "2024-01-07")
	assert.Error(t, err)

	_, err = ParseDateRange("2024-01-01", "")
	assert.Error(t, err)
}

func TestReversedRangeIsInvalidNotAnError(t *testing.T) {
	window, err := ParseDateRange("2024-02-10", "2024-02-05")
	require.NoError(t, err)

	assert.False(t, window.Valid())
	assert.Zero(t, window.Days())
}

func TestSingleDayRange(t *testing.T) {
	window, err := ParseDateRange("2024-01-01", "2024-01-01")
	require.NoError(t, err)

	assert.True(t, window.Valid())
	assert.Equal(t, 1, window.Days())
}

func TestDayTruncatesToUTCMidnight(t *testing.T) {
	ts := time.Date(2024, 6, 15, 23, 45, 12, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), Day(ts))
}
