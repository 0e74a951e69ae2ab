// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package config

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/samber/oops"
)

// Duration is a time.Duration that also accepts day, week and year suffixes
// and bare numbers of seconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// String formats the duration in Go syntax.
func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

var unitDuration = map[string]time.Duration{
	"ms": time.Millisecond, "msec": time.Millisecond, "msecs": time.Millisecond,
	"millisecond": time.Millisecond, "milliseconds": time.Millisecond,
	"s": time.Second, "sec": time.Second, "secs": time.Second,
	"second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute,
	"minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour,
	"hour": time.Hour, "hours": time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"w": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
	"y": 365*24*time.Hour + 6*time.Hour, "yr": 365*24*time.Hour + 6*time.Hour,
	"yrs": 365*24*time.Hour + 6*time.Hour, "year": 365*24*time.Hour + 6*time.Hour,
	"years": 365*24*time.Hour + 6*time.Hour,
}

var unitPattern = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)\s*([a-z]+)$`)

// ParseDuration parses Go duration syntax ("1h30m"), a single number with a
// unit ("15m", "7d", "2 weeks", "1y") or a bare number of seconds ("3600").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, oops.Code("CONFIG_INVALID").Errorf("empty duration")
	}

	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	m := unitPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, oops.Code("CONFIG_INVALID").With("value", s).Errorf("invalid duration %q", s)
	}
	unit, ok := unitDuration[m[2]]
	if !ok {
		return 0, oops.Code("CONFIG_INVALID").With("value", s).Errorf("unknown duration unit %q", m[2])
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, oops.Code("CONFIG_INVALID").With("value", s).Wrap(err)
	}
	return time.Duration(n * float64(unit)), nil
}

var durationType = reflect.TypeOf(Duration(0))

// durationHook decodes strings and numbers into Duration.
// Numbers are taken as seconds.
func durationHook() mapstructure.DecodeHookFuncType {
	return func(_, to reflect.Type, data any) (any, error) {
		if to != durationType {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			d, err := ParseDuration(v)
			return Duration(d), err
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case uint64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case Duration:
			return v, nil
		case time.Duration:
			return Duration(v), nil
		default:
			return data, nil
		}
	}
}
