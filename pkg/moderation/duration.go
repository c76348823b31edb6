package moderation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MaxTimeout is the ceiling of the native timeout and of timed mutes
const MaxTimeout = 28 * 24 * time.Hour

const (
	day  = 24 * time.Hour
	week = 7 * day
	year = 365*day + 6*time.Hour
)

var durationPattern = regexp.MustCompile(`(?i)^(-?(?:\d+)?\.?\d+) *(milliseconds?|msecs?|ms|seconds?|secs?|s|minutes?|mins?|m|hours?|hrs?|h|days?|d|weeks?|w|years?|yrs?|y)?$`)

// ParseDuration reads "10m", "2 hours", "1.5h", "1w"; a bare number is
// milliseconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	unit := time.Millisecond
	switch u := strings.ToLower(m[2]); {
	case u == "":
	case strings.HasPrefix(u, "ms"), strings.HasPrefix(u, "msec"), strings.HasPrefix(u, "millisecond"):
	case strings.HasPrefix(u, "s"):
		unit = time.Second
	case strings.HasPrefix(u, "m"):
		unit = time.Minute
	case strings.HasPrefix(u, "h"):
		unit = time.Hour
	case strings.HasPrefix(u, "d"):
		unit = day
	case strings.HasPrefix(u, "w"):
		unit = week
	case strings.HasPrefix(u, "y"):
		unit = year
	}

	ns := n * float64(unit)
	if ns >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q", ErrDurationTooLong, s)
	}
	d := time.Duration(ns)
	if d <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	return d, nil
}

// ParseMuteDuration parses s and enforces the 28 day ceiling
func ParseMuteDuration(s string) (time.Duration, error) {
	d, err := ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d > MaxTimeout {
		return 0, fmt.Errorf("%w: %s", ErrDurationTooLong, s)
	}
	return d, nil
}

// FormatDuration renders d as "1d 2h 3m", dropping zero parts
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	var parts []string
	if days := d / day; days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
		d -= days * day
	}
	if h := d / time.Hour; h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
		d -= h * time.Hour
	}
	if m := d / time.Minute; m > 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
	}
	return strings.Join(parts, " ")
}
