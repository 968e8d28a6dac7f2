package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		hour    int
		min     int
		wantErr bool
	}{
		{in: "09:00", hour: 9, min: 0},
		{in: "00:00", hour: 0, min: 0},
		{in: "23:59", hour: 23, min: 59},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "-1:00", wantErr: true},
		{in: "1200", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		hour, min, err := ParseTimeOfDay(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.hour, hour, tc.in)
		assert.Equal(t, tc.min, min, tc.in)
	}
}

func TestFirstDue(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	t.Run("time already passed goes to tomorrow", func(t *testing.T) {
		due, err := FirstDue(now, "09:00")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), due)
	})

	t.Run("time still ahead stays today", func(t *testing.T) {
		due, err := FirstDue(now, "15:30")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC), due)
	})

	t.Run("exact tie goes to tomorrow", func(t *testing.T) {
		due, err := FirstDue(now, "10:00")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), due)
	})

	t.Run("always strictly in the future, within a day", func(t *testing.T) {
		for hour := 0; hour < 24; hour++ {
			for _, min := range []int{0, 15, 59} {
				tod := time.Date(2024, 1, 1, hour, min, 0, 0, time.UTC).Format("15:04")
				due, err := FirstDue(now, tod)
				require.NoError(t, err)
				assert.True(t, due.After(now), "due %v for %s not after now", due, tod)
				assert.LessOrEqual(t, due.Sub(now), 24*time.Hour, tod)
			}
		}
	})

	t.Run("bad input", func(t *testing.T) {
		_, err := FirstDue(now, "25:00")
		assert.Error(t, err)
	})
}

func TestSeedLastRun(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(-24*time.Hour), SeedLastRun(now))
}

func TestNextDue(t *testing.T) {
	day := 24 * time.Hour
	due := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	t.Run("daily advance", func(t *testing.T) {
		now := due.Add(time.Minute)
		next := NextDue(due, day, now)
		assert.Equal(t, time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC), next)
	})

	t.Run("keeps phase across long downtime", func(t *testing.T) {
		now := time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC)
		next := NextDue(due, day, now)
		assert.Equal(t, time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC), next)
	})

	t.Run("next already in future is untouched", func(t *testing.T) {
		now := due.Add(-2 * time.Hour)
		next := NextDue(due, day, now)
		assert.Equal(t, due.Add(day), next)
	})

	t.Run("landing exactly on now advances once more", func(t *testing.T) {
		now := due.Add(day)
		next := NextDue(due, day, now)
		assert.True(t, next.After(now))
		assert.Equal(t, due.Add(2*day), next)
	})
}
