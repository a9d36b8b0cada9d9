package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulkwave/bulkwave-backend/internal/service"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNextOccurrenceDaily(t *testing.T) {
	next, err := service.NextOccurrence(ts("2024-01-31T10:00:00Z"), "daily")
	require.NoError(t, err)
	assert.Equal(t, ts("2024-02-01T10:00:00Z"), next)
}

func TestNextOccurrenceWeekly(t *testing.T) {
	next, err := service.NextOccurrence(ts("2024-02-26T08:30:00Z"), "weekly")
	require.NoError(t, err)
	assert.Equal(t, ts("2024-03-04T08:30:00Z"), next)
}

func TestNextOccurrenceMonthlyClampsToMonthEnd(t *testing.T) {
	// 2024 is a leap year: Jan 31 clamps to Feb 29.
	next, err := service.NextOccurrence(ts("2024-01-31T10:00:00Z"), "monthly")
	require.NoError(t, err)
	assert.Equal(t, ts("2024-02-29T10:00:00Z"), next)

	// Non-leap year clamps to Feb 28.
	next, err = service.NextOccurrence(ts("2023-01-31T10:00:00Z"), "monthly")
	require.NoError(t, err)
	assert.Equal(t, ts("2023-02-28T10:00:00Z"), next)

	// 31st into a 30-day month.
	next, err = service.NextOccurrence(ts("2024-03-31T10:00:00Z"), "monthly")
	require.NoError(t, err)
	assert.Equal(t, ts("2024-04-30T10:00:00Z"), next)
}

func TestNextOccurrenceMonthlyPlain(t *testing.T) {
	next, err := service.NextOccurrence(ts("2024-04-15T09:00:00Z"), "monthly")
	require.NoError(t, err)
	assert.Equal(t, ts("2024-05-15T09:00:00Z"), next)
}

func TestNextOccurrenceMonthlyYearRollover(t *testing.T) {
	next, err := service.NextOccurrence(ts("2024-12-31T23:00:00Z"), "monthly")
	require.NoError(t, err)
	assert.Equal(t, ts("2025-01-31T23:00:00Z"), next)
}

func TestNextOccurrenceUnknownInterval(t *testing.T) {
	_, err := service.NextOccurrence(ts("2024-01-01T00:00:00Z"), "fortnightly")
	assert.Error(t, err)
}
