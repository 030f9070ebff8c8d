package booking

import "time"

// GenerateSlots enumerates candidate start times for a day window: every t
// with start <= t and t+duration <= end, stepping by the granularity. A slot
// is dropped when its occupied interval [t, t+duration) intersects the lunch
// window [lunch_start, lunch_end); half-open, so a slot ending exactly at
// lunch_start survives.
func GenerateSlots(day DaySchedule, durationMin, granularityMin int) []TimeOfDay {
	if !day.Enabled || durationMin <= 0 || granularityMin <= 0 {
		return nil
	}
	var slots []TimeOfDay
	for t := day.Start; int(t)+durationMin <= int(day.End); t += TimeOfDay(granularityMin) {
		if day.HasLunch() && t < *day.LunchEnd && int(*day.LunchStart) < int(t)+durationMin {
			continue
		}
		slots = append(slots, t)
	}
	return slots
}

// FilterAvailable drops candidates whose interval [t, t+duration) overlaps
// an occupying appointment on the given date. Intervals [a,b) and [c,d)
// overlap iff a < d && c < b. Chronological order is preserved.
func FilterAvailable(candidates []TimeOfDay, date time.Time, durationMin int, existing []*Appointment) []TimeOfDay {
	var available []TimeOfDay
	for _, t := range candidates {
		if !slotTaken(t.At(date), durationMin, existing, nil) {
			available = append(available, t)
		}
	}
	return available
}

// slotTaken reports whether [start, start+duration) overlaps any occupying
// appointment. exclude skips one appointment id, used when rescheduling an
// appointment over its own old interval is irrelevant to the check.
func slotTaken(start time.Time, durationMin int, existing []*Appointment, exclude *Appointment) bool {
	end := start.Add(time.Duration(durationMin) * time.Minute)
	for _, a := range existing {
		if exclude != nil && a.ID == exclude.ID {
			continue
		}
		if !a.Occupying() {
			continue
		}
		if start.Before(a.EndTime()) && a.StartTime.Before(end) {
			return true
		}
	}
	return false
}
