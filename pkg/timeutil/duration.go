// Package timeutil reads and prints sync intervals.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultInterval is the sync interval used when none is configured.
const DefaultInterval = "15m"

// intervalUnits are largest first, which is the order FormatInterval prints.
var intervalUnits = []struct {
	label   string
	size    time.Duration
	aliases []string
}{
	{"h", time.Hour, []string{"h", "hr", "hrs", "hour", "hours"}},
	{"m", time.Minute, []string{"m", "min", "mins", "minute", "minutes"}},
	{"s", time.Second, []string{"s", "sec", "secs", "second", "seconds"}},
}

var segment = regexp.MustCompile(`^\s*(\d+)\s*([a-z]+)`)

func unitSize(name string) (time.Duration, bool) {
	for _, u := range intervalUnits {
		for _, alias := range u.aliases {
			if alias == name {
				return u.size, true
			}
		}
	}
	return 0, false
}

// ParseInterval reads an interval such as "15m", "1h30m" or "90 minutes"
// and returns it with its canonical spelling. Empty input means
// DefaultInterval.
func ParseInterval(input string) (time.Duration, string, error) {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" {
		in = DefaultInterval
	}
	if d, err := time.ParseDuration(in); err == nil && d > 0 {
		return d, FormatInterval(d), nil
	}

	var total time.Duration
	for rest := in; strings.TrimSpace(rest) != ""; {
		m := segment.FindStringSubmatch(rest)
		if m == nil {
			return 0, "", fmt.Errorf("invalid interval %q", input)
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, "", fmt.Errorf("invalid interval %q: %w", input, err)
		}
		size, ok := unitSize(m[2])
		if !ok {
			return 0, "", fmt.Errorf("unsupported interval unit %q", m[2])
		}
		total += time.Duration(n) * size
		rest = rest[len(m[0]):]
	}
	if total <= 0 {
		return 0, "", fmt.Errorf("interval must be greater than zero")
	}
	return total, FormatInterval(total), nil
}

// FormatInterval prints d in hours, minutes and seconds, dropping zero parts.
func FormatInterval(d time.Duration) string {
	var b strings.Builder
	for _, u := range intervalUnits {
		if n := d / u.size; n > 0 {
			fmt.Fprintf(&b, "%d%s", n, u.label)
			d -= n * u.size
		}
	}
	if b.Len() == 0 {
		return "0s"
	}
	return b.String()
}
