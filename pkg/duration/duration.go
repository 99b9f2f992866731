// Package duration provides human-friendly duration parsing.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Common duration constants for human-friendly units.
const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

var unitMultipliers = map[string]time.Duration{
	"d": Day,
	"w": Week,
}

// durationPattern matches duration components like "2w" or "3d".
var durationPattern = regexp.MustCompile(`(\d+)([wd])`)

// Parse extends time.ParseDuration with day (d = 24h) and week (w = 7d)
// units. Standard Go duration units (ns, us, ms, s, m, h) are also
// supported, and compounds like "1d12h" work as expected. "0" is a valid
// zero duration.
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}
	if s == "0" {
		return 0, nil
	}

	if !containsHumanUnits(s) {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w (supported units: ns, us, ms, s, m, h, d, w)", s, err)
		}
		return d, nil
	}

	return parseHumanDuration(s)
}

func containsHumanUnits(s string) bool {
	return durationPattern.MatchString(s)
}

func parseHumanDuration(s string) (time.Duration, error) {
	var total time.Duration
	remaining := s

	for _, match := range durationPattern.FindAllStringSubmatch(remaining, -1) {
		value, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration value %q in %q", match[1], s)
		}
		total += time.Duration(value) * unitMultipliers[match[2]]
	}
	remaining = strings.TrimSpace(durationPattern.ReplaceAllString(remaining, ""))

	if remaining != "" {
		d, err := time.ParseDuration(remaining)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		total += d
	}

	return total, nil
}

// Duration is a time.Duration that round-trips through YAML as a
// human-friendly string ("1s", "500ms", "1d").
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := Parse(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}
