package types

import (
	"strconv"
	"strings"
	"time"
)

var durationUnits = []struct {
	names []string
	unit  time.Duration
}{
	{[]string{"millisecond", "milliseconds", "ms"}, time.Millisecond},
	{[]string{"tick", "ticks"}, 50 * time.Millisecond},
	{[]string{"second", "seconds", "sec", "secs"}, time.Second},
	{[]string{"minute", "minutes", "min", "mins"}, time.Minute},
	{[]string{"hour", "hours"}, time.Hour},
	{[]string{"day", "days"}, day},
	{[]string{"week", "weeks"}, 7 * day},
}

// ParseDuration accepts Go syntax ("1m30s") and the script syntax
// "1 minute and 30 seconds", "2.5 hours", "a second".
func ParseDuration(s string) (time.Duration, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, true
	}

	s = strings.ReplaceAll(s, ",", " and ")
	var total time.Duration
	for _, part := range strings.Split(s, " and ") {
		fields := strings.Fields(part)
		if len(fields) != 2 {
			return 0, false
		}
		var amount float64
		switch fields[0] {
		case "a", "an", "one":
			amount = 1
		default:
			f, err := strconv.ParseFloat(fields[0], 64)
			if err != nil || f < 0 {
				return 0, false
			}
			amount = f
		}
		unit, ok := lookupDurationUnit(fields[1])
		if !ok {
			return 0, false
		}
		total += time.Duration(amount * float64(unit))
	}
	return total, true
}

// FormatDuration renders a duration as "1 hour and 2 minutes". Sub-millisecond
// precision is dropped.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "-" + FormatDuration(-d)
	}
	if d < time.Millisecond {
		return "0 milliseconds"
	}
	type part struct {
		unit time.Duration
		name string
	}
	parts := []part{
		{day, "day"}, {time.Hour, "hour"}, {time.Minute, "minute"},
		{time.Second, "second"}, {time.Millisecond, "millisecond"},
	}
	var out []string
	for _, p := range parts {
		n := d / p.unit
		if n == 0 {
			continue
		}
		d -= n * p.unit
		name := p.name
		if n != 1 {
			name += "s"
		}
		out = append(out, strconv.FormatInt(int64(n), 10)+" "+name)
	}
	if len(out) == 1 {
		return out[0]
	}
	return strings.Join(out[:len(out)-1], ", ") + " and " + out[len(out)-1]
}

func lookupDurationUnit(name string) (time.Duration, bool) {
	for _, u := range durationUnits {
		for _, n := range u.names {
			if n == name {
				return u.unit, true
			}
		}
	}
	return 0, false
}
