package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML scalars and accepts
// "d" (days) and "w" (weeks) on top of the standard Go duration units, so
// retention ages can be written as "7d" or "4w" instead of "168h".
type Duration time.Duration

var extUnits = regexp.MustCompile(`(\d+(?:\.\d+)?)([dw])`)

// ParseDuration parses a duration string with the extended d/w units.
func ParseDuration(s string) (time.Duration, error) {
	expanded := extUnits.ReplaceAllStringFunc(s, func(m string) string {
		sub := extUnits.FindStringSubmatch(m)
		n, err := strconv.ParseFloat(sub[1], 64)
		if err != nil {
			return m
		}
		hours := n * 24
		if sub[2] == "w" {
			hours = n * 24 * 7
		}
		return strconv.FormatFloat(hours, 'f', -1, 64) + "h"
	})
	d, err := time.ParseDuration(expanded)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	return d, nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}
