// Package schedule turns the admin calendar's busy state into bookable slots.
// Everything here is pure time math, all of it in UTC; callers convert at
// display boundaries only.
package schedule

import "time"

const (
	SlotDuration = 30 * time.Minute

	// Working hours, 09:00 inclusive to 18:00 exclusive.
	workdayStartHour = 9
	workdayEndHour   = 18

	// Slots are generated for a fixed forward window starting today.
	WindowDays = 7
)

// BusyInterval is an occupied range on the calendar, half-open [Start, End).
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Slot is a bookable 30-minute window. Date and DisplayTime are preformatted
// for the schedule picker.
type Slot struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Date        string    `json:"date"`
	DisplayTime string    `json:"time"`
}

// Available generates every open slot over the next WindowDays days.
// A slot survives iff it starts strictly after now, falls on a weekday within
// working hours, and does not overlap any busy interval. Deterministic: same
// (busy, now) always yields the same ordered result. An empty result is not
// an error, it simply means no availability.
func Available(busy []BusyInterval, now time.Time) []Slot {
	now = now.UTC()
	slots := make([]Slot, 0)
	for day := 0; day < WindowDays; day++ {
		d := now.AddDate(0, 0, day)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		for hour := workdayStartHour; hour < workdayEndHour; hour++ {
			for _, minute := range []int{0, 30} {
				start := time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
				end := start.Add(SlotDuration)
				if !start.After(now) {
					continue
				}
				if overlapsAny(start, end, busy) {
					continue
				}
				slots = append(slots, Slot{
					Start:       start,
					End:         end,
					Date:        start.Format("Mon Jan 2 2006"),
					DisplayTime: start.Format("3:04 PM"),
				})
			}
		}
	}
	return slots
}

// overlapsAny uses half-open interval overlap: touching endpoints do not
// count as a conflict.
func overlapsAny(start, end time.Time, busy []BusyInterval) bool {
	for _, b := range busy {
		if start.Before(b.End) && end.After(b.Start) {
			return true
		}
	}
	return false
}
