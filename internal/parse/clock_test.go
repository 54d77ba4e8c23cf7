package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseClock(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  int
		expectErr bool
	}{
		{name: "Midnight", raw: "00:00", expected: 0},
		{name: "Evening", raw: "18:30", expected: 1110},
		{name: "Last minute", raw: "23:59", expected: 1439},
		{name: "End of day", raw: "24:00", expected: MinutesPerDay},
		{name: "Past end of day", raw: "24:01", expectErr: true},
		{name: "Hour out of range", raw: "25:00", expectErr: true},
		{name: "Minute out of range", raw: "12:60", expectErr: true},
		{name: "Single digit hour", raw: "9:00", expectErr: true},
		{name: "Garbage", raw: "noon", expectErr: true},
		{name: "Empty", raw: "", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseClock(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, got)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "19:05", FormatClock(19*60+5))
	assert.Equal(t, "00:30", FormatClock(MinutesPerDay+30), "display wraps past midnight")
	assert.Equal(t, "23:00", FormatClock(-60))
}

func TestFormatEnd(t *testing.T) {
	assert.Equal(t, "24:00", FormatEnd(MinutesPerDay))
	assert.Equal(t, "19:00", FormatEnd(19*60))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-01")
	assert.NoError(t, err)
	assert.Equal(t, time.June, d.Month())

	_, err = ParseDate("2025-13-01")
	assert.Error(t, err)
	_, err = ParseDate("01/06/2025")
	assert.Error(t, err)
}

func TestMinuteOfDay(t *testing.T) {
	ts := time.Date(2025, 6, 1, 18, 20, 45, 0, time.UTC)
	assert.Equal(t, 18*60+20, MinuteOfDay(ts))
}
