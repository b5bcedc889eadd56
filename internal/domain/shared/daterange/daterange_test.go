package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, start, end time.Time) DateRange {
	t.Helper()
	dr, err := New(start, end)
	require.NoError(t, err)
	return dr
}

func TestNewRejectsInvertedAndEmptyRanges(t *testing.T) {
	_, err := New(day(5), day(5))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(day(6), day(5))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(time.Time{}, day(5))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	a := mustRange(t, day(1), day(5))

	cases := []struct {
		name string
		b    DateRange
		want bool
	}{
		{"identical", mustRange(t, day(1), day(5)), true},
		{"contained", mustRange(t, day(2), day(3)), true},
		{"partial front", mustRange(t, day(4), day(8)), true},
		{"partial back", mustRange(t, day(1), day(2)), true},
		{"touching end", mustRange(t, day(5), day(9)), false},
		{"touching start", mustRange(t, day(8), day(9)), false},
		{"disjoint", mustRange(t, day(10), day(12)), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, a.Overlaps(tc.b))
			assert.Equal(t, tc.want, tc.b.Overlaps(a))
		})
	}
}

func TestHoursAndDaysRoundUp(t *testing.T) {
	dr := mustRange(t, day(1), day(1).Add(90*time.Minute))
	assert.Equal(t, 2, dr.Hours())

	dr = mustRange(t, day(1), day(1).Add(25*time.Hour))
	assert.Equal(t, 2, dr.Days())

	dr = mustRange(t, day(1), day(3))
	assert.Equal(t, 2, dr.Days())
	assert.Equal(t, 48, dr.Hours())
}

func TestAdjacentAndMerge(t *testing.T) {
	a := mustRange(t, day(1), day(5))
	b := mustRange(t, day(5), day(9))
	c := mustRange(t, day(10), day(12))

	assert.True(t, a.Adjacent(b))
	assert.False(t, a.Adjacent(c))

	merged, ok := a.Merge(b)
	require.True(t, ok)
	assert.Equal(t, day(1), merged.Start)
	assert.Equal(t, day(9), merged.End)

	_, ok = a.Merge(c)
	assert.False(t, ok)
}

func TestContains(t *testing.T) {
	outer := mustRange(t, day(1), day(10))
	inner := mustRange(t, day(3), day(7))

	assert.True(t, outer.Contains(inner))
	assert.False(t, inner.Contains(outer))

	assert.True(t, outer.ContainsTime(day(1)))
	assert.False(t, outer.ContainsTime(day(10)))
}
