package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowanceUsedToday(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Europe/Kyiv")
	require.NoError(t, err)

	now := time.Date(2024, 3, 10, 14, 0, 0, 0, loc)

	t.Run("never used", func(t *testing.T) {
		assert.False(t, AllowanceUsedToday(nil, now, loc))
	})

	t.Run("used earlier today", func(t *testing.T) {
		used := time.Date(2024, 3, 10, 9, 30, 0, 0, loc)
		assert.True(t, AllowanceUsedToday(&used, now, loc))
	})

	t.Run("used yesterday", func(t *testing.T) {
		used := time.Date(2024, 3, 9, 23, 59, 0, 0, loc)
		assert.False(t, AllowanceUsedToday(&used, now, loc))
	})

	t.Run("resets at local midnight", func(t *testing.T) {
		used := time.Date(2024, 3, 10, 23, 50, 0, 0, loc)
		justAfterMidnight := time.Date(2024, 3, 11, 0, 10, 0, 0, loc)
		assert.False(t, AllowanceUsedToday(&used, justAfterMidnight, loc))
	})

	t.Run("UTC timestamp compared in local day", func(t *testing.T) {
		// 22:30 UTC on March 9 is already March 10 in Kyiv.
		used := time.Date(2024, 3, 9, 22, 30, 0, 0, time.UTC)
		assert.True(t, AllowanceUsedToday(&used, now, loc))
	})
}

func TestCanRequestTimeout(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)
	used := now.Add(-2 * time.Hour)

	assert.True(t, CanRequestTimeout(nil, now, time.UTC))
	assert.False(t, CanRequestTimeout(&used, now, time.UTC))

	yesterday := now.Add(-24 * time.Hour)
	assert.True(t, CanRequestTimeout(&yesterday, now, time.UTC))
}

func TestNextAllowanceAt(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	now := time.Date(2024, 3, 10, 14, 0, 0, 0, loc)

	t.Run("available now when unused", func(t *testing.T) {
		assert.Equal(t, now, NextAllowanceAt(nil, now, loc))
	})

	t.Run("next local midnight when used today", func(t *testing.T) {
		used := now.Add(-time.Hour)
		want := time.Date(2024, 3, 11, 0, 0, 0, 0, loc)
		assert.Equal(t, want, NextAllowanceAt(&used, now, loc))
	})
}
