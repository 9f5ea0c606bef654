package preferences

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-01 was a Monday.
var monday10 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func nonZero(g Grid) map[[2]int]int {
	out := map[[2]int]int{}
	for d := 0; d < DaysPerWeek; d++ {
		for h := 0; h < HoursPerDay; h++ {
			if g[d][h] != 0 {
				out[[2]int{d, h}] = g[d][h]
			}
		}
	}
	return out
}

func TestNewMatrixIsZeroed(t *testing.T) {
	m := NewMatrix([]string{"work", "sport"})

	assert.Equal(t, []string{"sport", "work"}, m.Types())
	for _, typ := range m.Types() {
		g, ok := m.Grid(typ)
		require.True(t, ok)
		assert.Empty(t, nonZero(g))
	}
}

func TestRecordEventBuckets(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		end    time.Time
		offset int
		want   map[[2]int]int
	}{
		{
			name:  "zero duration touches one bucket",
			start: monday10,
			end:   monday10,
			want:  map[[2]int]int{{1, 10}: 1},
		},
		{
			name:  "exactly one hour touches two buckets",
			start: monday10,
			end:   monday10.Add(time.Hour),
			want:  map[[2]int]int{{1, 10}: 1, {1, 11}: 1},
		},
		{
			name:  "ninety minutes touches two buckets",
			start: monday10,
			end:   monday10.Add(90 * time.Minute),
			want:  map[[2]int]int{{1, 10}: 1, {1, 11}: 1},
		},
		{
			name:   "positive offset moves into the next day",
			start:  time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC),
			end:    time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC),
			offset: 60,
			want:   map[[2]int]int{{2, 0}: 1},
		},
		{
			name:   "negative offset moves into the previous day",
			start:  monday10.Add(-10 * time.Hour),
			end:    monday10.Add(-10 * time.Hour),
			offset: -120,
			want:   map[[2]int]int{{0, 22}: 1},
		},
		{
			name:  "end before start records nothing",
			start: monday10,
			end:   monday10.Add(-time.Hour),
			want:  map[[2]int]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatrix([]string{"work"})
			require.NoError(t, m.RecordEvent("work", tt.start, tt.end, tt.offset))

			g, _ := m.Grid("work")
			assert.Equal(t, tt.want, nonZero(g))
		})
	}
}

func TestRecordEventUsesUTCWallClock(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	m := NewMatrix([]string{"work"})

	// 11:00 in Paris is 10:00 UTC; the caller's offset is what localises it.
	require.NoError(t, m.RecordEvent("work", monday10.In(paris), monday10.In(paris), 0))

	g, _ := m.Grid("work")
	assert.Equal(t, map[[2]int]int{{1, 10}: 1}, nonZero(g))
}

func TestRecordEventUnknownType(t *testing.T) {
	m := NewMatrix([]string{"work"})

	err := m.RecordEvent("party", monday10, monday10.Add(time.Hour), 0)

	assert.True(t, errors.Is(err, ErrInvalidEventType))
	g, _ := m.Grid("work")
	assert.Empty(t, nonZero(g))
}

func TestRecordEventRejectsOffsetOutOfRange(t *testing.T) {
	m := NewMatrix([]string{"work"})

	for _, offset := range []int{MaxOffsetMinutes + 1, -MaxOffsetMinutes - 1, 1 << 40} {
		err := m.RecordEvent("work", monday10, monday10, offset)
		assert.True(t, errors.Is(err, ErrInvalidOffset), "offset %d", offset)
	}
	g, _ := m.Grid("work")
	assert.Empty(t, nonZero(g))

	require.NoError(t, m.RecordEvent("work", monday10, monday10, MaxOffsetMinutes))
	g, _ = m.Grid("work")
	assert.Equal(t, map[[2]int]int{{2, 0}: 1}, nonZero(g))
}

func TestRecordEventIsMonotonic(t *testing.T) {
	m := NewMatrix([]string{"work", "sport"})
	prev := m.Clone()

	starts := []time.Time{monday10, monday10.Add(26 * time.Hour), monday10.Add(-3 * time.Hour), monday10}
	for i, start := range starts {
		typ := []string{"work", "sport"}[i%2]
		require.NoError(t, m.RecordEvent(typ, start, start.Add(time.Duration(i)*time.Hour), 0))

		for _, name := range m.Types() {
			before, _ := prev.Grid(name)
			after, _ := m.Grid(name)
			for d := 0; d < DaysPerWeek; d++ {
				for h := 0; h < HoursPerDay; h++ {
					assert.GreaterOrEqual(t, after[d][h], before[d][h])
					assert.GreaterOrEqual(t, after[d][h], 0)
				}
			}
		}
		prev = m.Clone()
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m := NewMatrix([]string{"work"})
	snapshot := m.Clone()

	require.NoError(t, m.RecordEvent("work", monday10, monday10, 0))

	g, _ := snapshot.Grid("work")
	assert.Empty(t, nonZero(g))
}

func TestValueAndScan(t *testing.T) {
	m := NewMatrix([]string{"work", "sport"})
	require.NoError(t, m.RecordEvent("sport", monday10, monday10.Add(time.Hour), 0))

	v, err := m.Value()
	require.NoError(t, err)

	var restored Matrix
	require.NoError(t, restored.Scan([]byte(v.(string))))
	assert.Equal(t, m, restored)

	assert.Error(t, restored.Scan(42))
	require.NoError(t, restored.Scan(nil))
	assert.Empty(t, restored)
}
