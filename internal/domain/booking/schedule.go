package booking

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight. It
// marshals as "HH:MM", the form used in schedule JSON and slot responses.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" (24-hour clock).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// At anchors the time of day on a calendar date, in that date's location.
func (t TimeOfDay) At(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), int(t)/60, int(t)%60, 0, 0, date.Location())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DaySchedule is one weekday's work window plus an optional lunch exclusion.
// A disabled day yields zero slots.
type DaySchedule struct {
	Enabled    bool       `json:"enabled"`
	Start      TimeOfDay  `json:"start"`
	End        TimeOfDay  `json:"end"`
	LunchStart *TimeOfDay `json:"lunch_start,omitempty"`
	LunchEnd   *TimeOfDay `json:"lunch_end,omitempty"`
}

func (d DaySchedule) HasLunch() bool {
	return d.LunchStart != nil && d.LunchEnd != nil
}

// Validate checks the window invariants. Disabled days are always valid.
func (d DaySchedule) Validate() error {
	if !d.Enabled {
		return nil
	}
	if d.Start >= d.End {
		return Validationf("day window start %s must be before end %s", d.Start, d.End)
	}
	if d.LunchStart != nil || d.LunchEnd != nil {
		if d.LunchStart == nil || d.LunchEnd == nil {
			return Validationf("lunch window requires both lunch_start and lunch_end")
		}
		if *d.LunchStart >= *d.LunchEnd {
			return Validationf("lunch_start %s must be before lunch_end %s", *d.LunchStart, *d.LunchEnd)
		}
		if *d.LunchStart < d.Start || *d.LunchEnd > d.End {
			return Validationf("lunch window %s-%s must fall within the day window %s-%s",
				*d.LunchStart, *d.LunchEnd, d.Start, d.End)
		}
	}
	return nil
}

// WeeklySchedule maps weekdays to day windows. External JSON accepts both
// three-letter ("mon") and full ("monday") day keys; it always marshals back
// with full lowercase names.
type WeeklySchedule map[time.Weekday]DaySchedule

var dayKeys = map[string]time.Weekday{
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
	"sun": time.Sunday, "sunday": time.Sunday,
}

// ParseDayKey resolves an external day key to a weekday.
func ParseDayKey(s string) (time.Weekday, bool) {
	wd, ok := dayKeys[strings.ToLower(strings.TrimSpace(s))]
	return wd, ok
}

// Day returns the schedule for a weekday. An absent entry reads as a
// disabled day, which generates zero slots.
func (w WeeklySchedule) Day(d time.Weekday) DaySchedule {
	return w[d]
}

// Validate checks every enabled day's window invariants.
func (w WeeklySchedule) Validate() error {
	for wd, day := range w {
		if err := day.Validate(); err != nil {
			return Validationf("%s: %s", strings.ToLower(wd.String()), err.(*Error).Message)
		}
	}
	return nil
}

func (w *WeeklySchedule) UnmarshalJSON(b []byte) error {
	var raw map[string]DaySchedule
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(WeeklySchedule, len(raw))
	for key, day := range raw {
		wd, ok := ParseDayKey(key)
		if !ok {
			return Validationf("unknown day key %q", key)
		}
		out[wd] = day
	}
	*w = out
	return nil
}

func (w WeeklySchedule) MarshalJSON() ([]byte, error) {
	out := make(map[string]DaySchedule, len(w))
	for wd, day := range w {
		out[strings.ToLower(wd.String())] = day
	}
	return json.Marshal(out)
}
