package script

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/tempo/internal/scheduler"
	"github.com/roach88/tempo/internal/trigger"
	"github.com/roach88/tempo/internal/types"
)

// ParseEvent parses event text. Durations and times use the literal
// parsers of reg, so "every 1 minute and 30 seconds" and "at 3pm" work.
func ParseEvent(reg *types.Registry, text string, args map[string]any) (trigger.Event, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	switch {
	case s == "load" || s == "on load" || s == "on script load":
		return &scheduler.ScriptLoad{Args: args}, nil

	case strings.HasPrefix(s, "every "):
		v, ok := reg.ParseLiteral(types.TypeDuration, strings.TrimPrefix(s, "every "))
		if !ok {
			return nil, fmt.Errorf("event %q: invalid duration", text)
		}
		d := v.(time.Duration)
		if d <= 0 {
			return nil, fmt.Errorf("event %q: interval must be positive", text)
		}
		return &scheduler.Periodical{Interval: d}, nil

	case strings.HasPrefix(s, "at "):
		v, ok := reg.ParseLiteral(types.TypeTime, strings.TrimPrefix(s, "at "))
		if !ok {
			return nil, fmt.Errorf("event %q: invalid time", text)
		}
		return &scheduler.AtTime{Time: v.(types.TimeOfDay)}, nil
	}
	return nil, fmt.Errorf("unknown event %q", text)
}
