package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpec_Invalid(t *testing.T) {
	tests := []struct {
		name string
		spec string
	}{
		{"empty", ""},
		{"four fields", "0 9 * *"},
		{"six fields", "0 0 9 * * *"},
		{"minute out of range", "60 9 * * *"},
		{"hour out of range", "0 24 * * *"},
		{"day of month zero", "0 9 0 * *"},
		{"month out of range", "0 9 * 13 *"},
		{"day of week out of range", "0 9 * * 8"},
		{"reversed range", "0 17-9 * * *"},
		{"zero step", "*/0 * * * *"},
		{"bad step", "*/x * * * *"},
		{"not a number", "0 nine * * *"},
		{"empty list element", "0,,30 * * * *"},
		{"named weekday", "0 9 * * MON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSpec(tt.spec)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSpec)
		})
	}
}

func TestSpec_Next(t *testing.T) {
	at := func(s string) time.Time {
		t.Helper()
		v, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC)
		require.NoError(t, err)
		return v
	}

	tests := []struct {
		name  string
		spec  string
		after string
		want  string
	}{
		{"daily before nine", DefaultSpec, "2026-03-02 08:59:30", "2026-03-02 09:00:00"},
		{"daily exactly nine is strictly after", DefaultSpec, "2026-03-02 09:00:00", "2026-03-03 09:00:00"},
		{"daily after nine", DefaultSpec, "2026-03-02 09:00:01", "2026-03-03 09:00:00"},
		{"daily rolls over month and year", DefaultSpec, "2026-12-31 10:00:00", "2027-01-01 09:00:00"},
		{"every minute", "* * * * *", "2026-03-02 10:15:42", "2026-03-02 10:16:00"},
		{"minute step", "*/15 * * * *", "2026-03-02 10:16:00", "2026-03-02 10:30:00"},
		{"range with step", "0 9-17/4 * * *", "2026-03-02 13:00:00", "2026-03-02 17:00:00"},
		{"start with step", "5/20 * * * *", "2026-03-02 10:26:00", "2026-03-02 10:45:00"},
		{"list", "0,30 8 * * *", "2026-03-02 08:10:00", "2026-03-02 08:30:00"},
		{"weekdays from saturday", "30 8 * * 1-5", "2026-03-07 09:00:00", "2026-03-09 08:30:00"},
		{"sunday as seven", "0 9 * * 7", "2026-03-02 09:00:00", "2026-03-08 09:00:00"},
		{"sunday as zero", "0 9 * * 0", "2026-03-02 09:00:00", "2026-03-08 09:00:00"},
		{"day of month", "0 0 15 * *", "2026-03-16 00:00:00", "2026-04-15 00:00:00"},
		{"month restriction", "0 0 1 6 *", "2026-03-02 00:00:00", "2026-06-01 00:00:00"},
		{"skips short months", "0 0 31 * *", "2026-04-01 00:00:00", "2026-05-31 00:00:00"},
		{"leap day", "0 0 29 2 *", "2026-03-01 00:00:00", "2028-02-29 00:00:00"},
		// 2026-03-10 вторник, 2026-03-13 пятница
		{"day of month or weekday", "0 9 13 * 2", "2026-03-09 12:00:00", "2026-03-10 09:00:00"},
		{"day of month or weekday second match", "0 9 13 * 2", "2026-03-10 12:00:00", "2026-03-13 09:00:00"},
		{"stepped day of month combines with weekday", "0 9 */2 * 2", "2026-03-03 12:00:00", "2026-03-17 09:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseSpec(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, at(tt.want), spec.Next(at(tt.after)))
		})
	}
}

func TestSpec_NextNeverMatches(t *testing.T) {
	spec, err := ParseSpec("0 0 30 2 *")
	require.NoError(t, err)
	assert.True(t, spec.Next(time.Now()).IsZero())
}

func TestSpec_NextKeepsLocation(t *testing.T) {
	loc := time.FixedZone("WAT", 3600)
	spec, err := ParseSpec(DefaultSpec)
	require.NoError(t, err)

	after := time.Date(2026, 3, 2, 8, 30, 0, 0, loc)
	next := spec.Next(after)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, loc), next)
	assert.Equal(t, loc, next.Location())
}

func TestSpec_NextAcrossDSTGap(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 2026-03-08 02:00 не существует в America/New_York
	spec, err := ParseSpec("30 2 * * *")
	require.NoError(t, err)

	next := spec.Next(time.Date(2026, 3, 8, 1, 0, 0, 0, loc))
	assert.True(t, next.After(time.Date(2026, 3, 8, 1, 0, 0, 0, loc)))
	assert.Equal(t, 30, next.Minute())
	assert.Equal(t, 2, next.Hour())
}

func TestSpec_String(t *testing.T) {
	spec, err := ParseSpec("  0   9 * *  1-5 ")
	require.NoError(t, err)
	assert.Equal(t, "0 9 * * 1-5", spec.String())
}
