// Package preferences keeps the per-calendar weekly occupancy counters that the
// scheduling assistant reads to propose low-conflict slots.
package preferences

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

const (
	DaysPerWeek = 7
	HoursPerDay = 24
)

// MaxOffsetMinutes bounds the timezone offset accepted by RecordEvent (UTC-14:00 to UTC+14:00).
const MaxOffsetMinutes = 14 * 60

var (
	// ErrInvalidEventType is returned for an event type the matrix was not configured with.
	ErrInvalidEventType = errors.New("event type invalid")
	ErrInvalidOffset    = errors.New("timezone offset out of range")
)

// Grid counts event placements by weekday (0 = Sunday) and hour of day.
type Grid [DaysPerWeek][HoursPerDay]int

// Matrix holds one Grid per configured event type. Counters only grow.
type Matrix map[string]*Grid

// NewMatrix returns a zeroed matrix with a grid for every type.
func NewMatrix(types []string) Matrix {
	m := make(Matrix, len(types))
	for _, t := range types {
		m[t] = &Grid{}
	}
	return m
}

// Has reports whether eventType is configured.
func (m Matrix) Has(eventType string) bool {
	_, ok := m[eventType]
	return ok
}

// Types returns the configured event types in sorted order.
func (m Matrix) Types() []string {
	types := make([]string, 0, len(m))
	for t := range m {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// RecordEvent counts an event placement. Both instants are shifted by the
// caller's timezone offset, then every one-hour step from the shifted start up
// to and including the shifted end increments its bucket.
//
// The end instant is inclusive, so an event lasting exactly N hours touches
// N+1 buckets. Stored matrices were built this way and must stay comparable.
func (m Matrix) RecordEvent(eventType string, start, end time.Time, tzOffsetMinutes int) error {
	grid, ok := m[eventType]
	if !ok || grid == nil {
		return fmt.Errorf("%w: %q", ErrInvalidEventType, eventType)
	}
	if tzOffsetMinutes < -MaxOffsetMinutes || tzOffsetMinutes > MaxOffsetMinutes {
		return fmt.Errorf("%w: %d", ErrInvalidOffset, tzOffsetMinutes)
	}

	shift := time.Duration(tzOffsetMinutes) * time.Minute
	localStart := start.UTC().Add(shift)
	localEnd := end.UTC().Add(shift)

	for step := localStart; !step.After(localEnd); step = step.Add(time.Hour) {
		grid[step.Weekday()][step.Hour()]++
	}
	return nil
}

// Grid returns a copy of the grid for eventType.
func (m Matrix) Grid(eventType string) (Grid, bool) {
	grid, ok := m[eventType]
	if !ok || grid == nil {
		return Grid{}, false
	}
	return *grid, true
}

// Clone returns a deep copy, safe to hand to read-only consumers.
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for t, grid := range m {
		g := Grid{}
		if grid != nil {
			g = *grid
		}
		out[t] = &g
	}
	return out
}

// Value implements driver.Valuer; matrices are stored as JSON text.
func (m Matrix) Value() (driver.Value, error) {
	if m == nil {
		m = Matrix{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal preferences: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (m *Matrix) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	case nil:
		*m = Matrix{}
		return nil
	default:
		return fmt.Errorf("unsupported preferences column type %T", src)
	}

	out := Matrix{}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	for t, grid := range out {
		if grid == nil {
			out[t] = &Grid{}
		}
	}
	*m = out
	return nil
}
