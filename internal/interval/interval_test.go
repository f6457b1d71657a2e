package interval

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitsync-schedule/pkg/response"
)

func at(t *testing.T, hour, min int) time.Time {
	t.Helper()
	return time.Date(2025, time.March, 3, hour, min, 0, 0, time.UTC)
}

func iv(t *testing.T, startH, startM, endH, endM int) Interval {
	t.Helper()
	out, err := New(at(t, startH, startM), at(t, endH, endM))
	require.NoError(t, err)
	return out
}

func TestNew(t *testing.T) {
	t.Run("valid interval", func(t *testing.T) {
		got, err := New(at(t, 9, 0), at(t, 10, 0))
		require.NoError(t, err)
		assert.Equal(t, time.Hour, got.Duration())
	})

	t.Run("start equal to end rejected", func(t *testing.T) {
		_, err := New(at(t, 9, 0), at(t, 9, 0))
		assert.ErrorIs(t, err, response.ErrInvalidInterval)
	})

	t.Run("start after end rejected", func(t *testing.T) {
		_, err := New(at(t, 10, 0), at(t, 9, 0))
		assert.ErrorIs(t, err, response.ErrInvalidInterval)
	})

	t.Run("sub-minute precision rejected", func(t *testing.T) {
		_, err := New(at(t, 9, 0).Add(30*time.Second), at(t, 10, 0))
		assert.ErrorIs(t, err, response.ErrInvalidInterval)
	})

	t.Run("zero bound rejected", func(t *testing.T) {
		_, err := New(time.Time{}, at(t, 10, 0))
		require.Error(t, err)
		assert.True(t, errors.Is(err, response.ErrInvalidInterval))
	})
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", iv(t, 9, 0, 10, 0), iv(t, 9, 0, 10, 0), true},
		{"partial overlap", iv(t, 9, 0, 10, 0), iv(t, 9, 30, 10, 30), true},
		{"containment", iv(t, 9, 0, 12, 0), iv(t, 10, 0, 11, 0), true},
		{"back-to-back does not overlap", iv(t, 9, 0, 10, 0), iv(t, 10, 0, 11, 0), false},
		{"disjoint", iv(t, 9, 0, 10, 0), iv(t, 11, 0, 12, 0), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.a, tc.b))
			assert.Equal(t, tc.want, Overlaps(tc.b, tc.a))
		})
	}
}

func TestCovers(t *testing.T) {
	container := iv(t, 9, 0, 12, 0)

	assert.True(t, Covers(container, iv(t, 9, 0, 12, 0)))
	assert.True(t, Covers(container, iv(t, 10, 0, 11, 0)))
	assert.True(t, Covers(container, iv(t, 9, 0, 10, 0)))
	assert.False(t, Covers(container, iv(t, 8, 0, 10, 0)))
	assert.False(t, Covers(container, iv(t, 11, 0, 13, 0)))
	assert.False(t, Covers(iv(t, 10, 0, 11, 0), container))
}

func TestCoveredBy(t *testing.T) {
	t.Run("touching pieces cover jointly", func(t *testing.T) {
		set := []Interval{iv(t, 9, 0, 10, 0), iv(t, 10, 0, 11, 0)}
		assert.True(t, CoveredBy(iv(t, 9, 30, 10, 30), set))
	})

	t.Run("gap breaks coverage", func(t *testing.T) {
		set := []Interval{iv(t, 9, 0, 10, 0), iv(t, 10, 30, 11, 0)}
		assert.False(t, CoveredBy(iv(t, 9, 30, 10, 45), set))
	})

	t.Run("empty set covers nothing", func(t *testing.T) {
		assert.False(t, CoveredBy(iv(t, 9, 0, 10, 0), nil))
	})
}

func TestMerge(t *testing.T) {
	t.Run("order independent", func(t *testing.T) {
		a := Merge([]Interval{iv(t, 11, 0, 12, 0), iv(t, 9, 0, 10, 0), iv(t, 9, 30, 11, 0)})
		b := Merge([]Interval{iv(t, 9, 30, 11, 0), iv(t, 9, 0, 10, 0), iv(t, 11, 0, 12, 0)})
		assert.Equal(t, a, b)
		assert.Equal(t, []Interval{iv(t, 9, 0, 12, 0)}, a)
	})

	t.Run("disjoint preserved sorted", func(t *testing.T) {
		got := Merge([]Interval{iv(t, 14, 0, 15, 0), iv(t, 9, 0, 10, 0)})
		assert.Equal(t, []Interval{iv(t, 9, 0, 10, 0), iv(t, 14, 0, 15, 0)}, got)
	})
}

func TestSubtract(t *testing.T) {
	container := iv(t, 9, 0, 12, 0)

	t.Run("middle cutout splits", func(t *testing.T) {
		got := Subtract(container, []Interval{iv(t, 10, 0, 11, 0)})
		assert.Equal(t, []Interval{iv(t, 9, 0, 10, 0), iv(t, 11, 0, 12, 0)}, got)
	})

	t.Run("edge cutout trims", func(t *testing.T) {
		got := Subtract(container, []Interval{iv(t, 9, 0, 10, 0)})
		assert.Equal(t, []Interval{iv(t, 10, 0, 12, 0)}, got)
	})

	t.Run("covering cutout empties", func(t *testing.T) {
		got := Subtract(container, []Interval{iv(t, 8, 0, 13, 0)})
		assert.Empty(t, got)
	})

	t.Run("overlapping cutouts subtract as union", func(t *testing.T) {
		got := Subtract(container, []Interval{iv(t, 9, 30, 10, 30), iv(t, 10, 0, 11, 0)})
		assert.Equal(t, []Interval{iv(t, 9, 0, 9, 30), iv(t, 11, 0, 12, 0)}, got)
	})

	t.Run("no cutouts returns container", func(t *testing.T) {
		got := Subtract(container, nil)
		assert.Equal(t, []Interval{container}, got)
	})
}

func TestClamp(t *testing.T) {
	window := iv(t, 9, 0, 12, 0)

	assert.Equal(t, iv(t, 9, 0, 10, 0), Clamp(iv(t, 8, 0, 10, 0), window))
	assert.Equal(t, iv(t, 11, 0, 12, 0), Clamp(iv(t, 11, 0, 13, 0), window))
	assert.True(t, Clamp(iv(t, 13, 0, 14, 0), window).IsZero())
}
