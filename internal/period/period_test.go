package period

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	p, err := Parse("2025-07")
	assert.NoError(t, err)
	assert.Equal(t, 2025, p.Year)
	assert.Equal(t, time.July, p.Month)

	for _, bad := range []string{"", "2025", "2025-13", "2025-7", "july 2025"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidPeriod, "input %q", bad)
	}
}

func TestPreviousCrossesYearBoundary(t *testing.T) {
	p := Period{Year: 2025, Month: time.January}
	prev := p.Previous()
	assert.Equal(t, 2024, prev.Year)
	assert.Equal(t, time.December, prev.Month)
}

func TestBoundsAreInclusive(t *testing.T) {
	p := Period{Year: 2025, Month: time.June}

	assert.Equal(t, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), p.Start())
	assert.True(t, p.Contains(p.Start()))
	assert.True(t, p.Contains(p.End()))
	assert.False(t, p.Contains(p.Start().Add(-time.Nanosecond)))
	assert.False(t, p.Contains(p.End().Add(time.Nanosecond)))
}

func TestOrdering(t *testing.T) {
	june := Period{Year: 2025, Month: time.June}
	july := Period{Year: 2025, Month: time.July}

	assert.True(t, june.Before(july))
	assert.True(t, july.After(june))
	assert.False(t, june.After(june))
	assert.False(t, june.Before(june))
}

func TestJSONRendering(t *testing.T) {
	p := Period{Year: 2025, Month: time.March}

	data, err := json.Marshal(p)
	assert.NoError(t, err)
	assert.Equal(t, `"2025-03"`, string(data))

	var decoded Period
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, p, decoded)

	data, err = json.Marshal(Period{})
	assert.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestOfUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+14", 14*3600)
	// 2025-07-01 10:00 +14 is still June in UTC.
	p := Of(time.Date(2025, time.July, 1, 10, 0, 0, 0, loc))
	assert.Equal(t, time.June, p.Month)
}
