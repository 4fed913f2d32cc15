package monthrange

import (
	"fmt"
	"strings"
	"time"
)

// Weekend is the set of weekdays excluded from workday counts.
// An empty set means every day counts as a workday.
type Weekend map[time.Weekday]bool

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekend builds a Weekend from day names (case-insensitive)
// Example: ParseWeekend([]string{"friday", "saturday"})
func ParseWeekend(days []string) (Weekend, error) {
	weekend := make(Weekend, len(days))

	for _, name := range days {
		day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown weekday name: %q", name)
		}
		weekend[day] = true
	}

	return weekend, nil
}

// Contains reports whether the given weekday is part of the weekend
func (w Weekend) Contains(day time.Weekday) bool {
	return w[day]
}

// Days returns the weekend weekdays in Sunday-first order
func (w Weekend) Days() []time.Weekday {
	days := make([]time.Weekday, 0, len(w))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if w[d] {
			days = append(days, d)
		}
	}
	return days
}

// String returns a comma-separated list of weekend day names
func (w Weekend) String() string {
	names := make([]string, 0, len(w))
	for _, d := range w.Days() {
		names = append(names, d.String())
	}
	return strings.Join(names, ", ")
}
