package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

// TimeOfDay is a wall-clock time without a date, stored as the offset from
// midnight. The zero value is midnight.
type TimeOfDay struct {
	offset time.Duration
}

var (
	// Midnight is 00:00.
	Midnight = TimeOfDay{}
	// Latest is the last representable instant of a day.
	Latest = TimeOfDay{offset: day - time.Nanosecond}
)

// NewTimeOfDay builds a time of day. Out-of-range components wrap around.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	d := time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second
	return TimeOfDay{offset: wrapDay(d)}
}

// TimeOfDayOf extracts the time of day from t in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay{offset: time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())}
}

// SinceMidnight returns the offset from midnight.
func (t TimeOfDay) SinceMidnight() time.Duration {
	return t.offset
}

func (t TimeOfDay) Hour() int   { return int(t.offset / time.Hour) }
func (t TimeOfDay) Minute() int { return int(t.offset % time.Hour / time.Minute) }
func (t TimeOfDay) Second() int { return int(t.offset % time.Minute / time.Second) }

func (t TimeOfDay) Before(other TimeOfDay) bool { return t.offset < other.offset }
func (t TimeOfDay) After(other TimeOfDay) bool  { return t.offset > other.offset }

// Difference returns the absolute distance between two times of day within
// the same day.
func (t TimeOfDay) Difference(other TimeOfDay) time.Duration {
	d := t.offset - other.offset
	if d < 0 {
		return -d
	}
	return d
}

// Add moves the time forward, wrapping past midnight.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return TimeOfDay{offset: wrapDay(t.offset + d)}
}

// Sub moves the time backward, wrapping past midnight.
func (t TimeOfDay) Sub(d time.Duration) TimeOfDay {
	return TimeOfDay{offset: wrapDay(t.offset - d)}
}

func (t TimeOfDay) String() string {
	if t.Second() == 0 && t.offset%time.Second == 0 {
		return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
	}
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// ParseTimeOfDay accepts "15:04", "15:04:05", "3pm", "3:04 pm",
// "midnight" and "noon".
func ParseTimeOfDay(s string) (TimeOfDay, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "midnight":
		return Midnight, true
	case "noon", "midday":
		return NewTimeOfDay(12, 0, 0), true
	}

	meridiem := ""
	for _, suffix := range []string{"am", "pm"} {
		if strings.HasSuffix(s, suffix) {
			meridiem = suffix
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 || (meridiem == "" && len(parts) < 2) {
		return TimeOfDay{}, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || (i > 0 && (len(p) != 2 || n > 59)) {
			return TimeOfDay{}, false
		}
		nums[i] = n
	}

	hour := nums[0]
	switch meridiem {
	case "":
		if hour > 23 {
			return TimeOfDay{}, false
		}
	default:
		if hour < 1 || hour > 12 {
			return TimeOfDay{}, false
		}
		hour %= 12
		if meridiem == "pm" {
			hour += 12
		}
	}
	return NewTimeOfDay(hour, nums[1], nums[2]), true
}

func wrapDay(d time.Duration) time.Duration {
	d %= day
	if d < 0 {
		d += day
	}
	return d
}
