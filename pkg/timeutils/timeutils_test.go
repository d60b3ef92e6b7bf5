package timeutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocalDateTime(t *testing.T) {
	bogota, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)

	cases := []string{
		"2026-03-02T10:00:00",
		"2026-03-02T10:00",
		"2026-03-02 10:00",
		"2026-03-02T10:00:00Z",
		"2026-03-02T10:00:00-05:00",
		"2026-03-02T10:00:00+02:00",
		"2026-03-02T10:00:00.000",
	}
	for _, c := range cases {
		t.Run(c, func(t *testing.T) {
			got, err := ParseLocalDateTime(c, bogota)
			require.NoError(t, err)
			assert.Equal(t, 10, got.Hour())
			assert.Equal(t, bogota, got.Location())
			assert.Equal(t, 2, got.Day())
		})
	}

	_, err = ParseLocalDateTime("mañana a las 10", bogota)
	assert.Error(t, err)
}

func TestLabels(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "9:00 AM", SlotLabel(ts))
	assert.Equal(t, "09:00 AM", ClockLabel(ts))
	assert.Equal(t, "1:00 PM", SlotLabel(ts.Add(4*time.Hour)))
	assert.Equal(t, "12:00 PM", SlotLabel(ts.Add(3*time.Hour)))
}

func TestSpanishWeekday(t *testing.T) {
	assert.Equal(t, "lunes", SpanishWeekday(time.Monday))
	assert.Equal(t, "lunes", SpanishWeekdayPlural(time.Monday))
	assert.Equal(t, "sábados", SpanishWeekdayPlural(time.Saturday))
	assert.Equal(t, "Miércoles", Capitalize(SpanishWeekday(time.Wednesday)))
}
