package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-08 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2024, time.January, 8, hour, minute, 0, 0, time.UTC)
}

func slotStarts(slots []Slot) []time.Time {
	starts := make([]time.Time, 0, len(slots))
	for _, s := range slots {
		starts = append(starts, s.Start)
	}
	return starts
}

func TestAvailable_BusyIntervalExcluded(t *testing.T) {
	now := monday(8, 0)
	busy := []BusyInterval{{Start: monday(10, 0), End: monday(10, 30)}}

	slots := Available(busy, now)
	require.NotEmpty(t, slots)

	starts := slotStarts(slots)
	assert.Contains(t, starts, monday(9, 0))
	assert.Contains(t, starts, monday(9, 30))
	assert.NotContains(t, starts, monday(10, 0))
	assert.Contains(t, starts, monday(10, 30))
	assert.Contains(t, starts, monday(17, 30))

	// First slot of the day opens at 09:00, nothing earlier.
	assert.Equal(t, monday(9, 0), slots[0].Start)
}

func TestAvailable_TouchingBusyEndpointIsNotOverlap(t *testing.T) {
	now := monday(8, 0)
	// Busy exactly 10:00-10:30; the 09:30 and 10:30 slots touch it and must survive.
	busy := []BusyInterval{{Start: monday(10, 0), End: monday(10, 30)}}
	starts := slotStarts(Available(busy, now))
	assert.Contains(t, starts, monday(9, 30))
	assert.Contains(t, starts, monday(10, 30))
}

func TestAvailable_WeekendSkipped(t *testing.T) {
	// 2024-01-12 is a Friday; at 17:45 the 17:30 slot has already started.
	now := time.Date(2024, time.January, 12, 17, 45, 0, 0, time.UTC)
	slots := Available(nil, now)
	require.NotEmpty(t, slots)

	for _, s := range slots {
		assert.NotEqual(t, time.Saturday, s.Start.Weekday())
		assert.NotEqual(t, time.Sunday, s.Start.Weekday())
	}
	// Nothing left on Friday, the schedule resumes Monday 09:00.
	expected := time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, expected, slots[0].Start)
}

func TestAvailable_StrictlyFuture(t *testing.T) {
	now := monday(9, 30)
	slots := Available(nil, now)
	require.NotEmpty(t, slots)
	for _, s := range slots {
		assert.True(t, s.Start.After(now), "slot %s not after now", s.Start)
	}
	// A slot starting exactly at now is excluded.
	assert.Equal(t, monday(10, 0), slots[0].Start)
}

func TestAvailable_NoOverlapProperty(t *testing.T) {
	now := monday(7, 15)
	busy := []BusyInterval{
		{Start: monday(9, 15), End: monday(9, 45)},
		{Start: monday(13, 0), End: monday(15, 0)},
		{Start: time.Date(2024, time.January, 10, 11, 0, 0, 0, time.UTC), End: time.Date(2024, time.January, 10, 12, 30, 0, 0, time.UTC)},
	}
	for _, s := range Available(busy, now) {
		for _, b := range busy {
			overlap := s.Start.Before(b.End) && s.End.After(b.Start)
			assert.False(t, overlap, "slot %s overlaps busy %s-%s", s.Start, b.Start, b.End)
		}
	}
}

func TestAvailable_Deterministic(t *testing.T) {
	now := monday(8, 0)
	busy := []BusyInterval{{Start: monday(11, 0), End: monday(12, 0)}}
	first := Available(busy, now)
	second := Available(busy, now)
	assert.Equal(t, first, second)
}

func TestAvailable_FullyBookedWeekIsEmptyNotError(t *testing.T) {
	now := monday(8, 0)
	busy := []BusyInterval{{Start: monday(0, 0), End: monday(0, 0).AddDate(0, 0, 8)}}
	slots := Available(busy, now)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestAvailable_SlotShapeAndOrder(t *testing.T) {
	now := monday(8, 0)
	slots := Available(nil, now)
	require.NotEmpty(t, slots)
	for i, s := range slots {
		assert.Equal(t, SlotDuration, s.End.Sub(s.Start))
		assert.NotEmpty(t, s.Date)
		assert.NotEmpty(t, s.DisplayTime)
		if i > 0 {
			assert.True(t, s.Start.After(slots[i-1].Start), "slots out of order at %d", i)
		}
	}
	assert.Equal(t, "9:00 AM", slots[0].DisplayTime)
	assert.Equal(t, "Mon Jan 8 2024", slots[0].Date)
}
