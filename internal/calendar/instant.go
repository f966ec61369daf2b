// Package calendar holds the time arithmetic behind bookings: instant
// normalization, half-open interval overlap and ICS export.
package calendar

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Timestamp is the seconds/nanoseconds shape document stores use for
// server timestamps.
type Timestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

// MinMillis and MaxMillis bound the instants a booking or event may use:
// the first and last millisecond of years 0 and 9999, the range that
// time.Time can encode as RFC 3339.
var (
	MinMillis = time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	MaxMillis = time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli() - 1
)

// InRange reports whether ms lies in [MinMillis, MaxMillis].
func InRange(ms int64) bool {
	return ms >= MinMillis && ms <= MaxMillis
}

// Millis returns the epoch-millisecond value of v.  Accepted forms are
// integers and floats (already millis), json.Number, ISO-8601 strings,
// time.Time, Timestamp, values exposing AsTime() and decoded JSON objects
// with a "seconds" field.  Anything else, including the zero time and
// empty strings, is 0.
//
// A string of digits is read as epoch millis only when it has at least
// nine digits; shorter ones such as "2026" are ISO-8601 years.  ISO
// strings without a zone are read as UTC.
func Millis(v any) int64 {
	switch t := v.(type) {
	case nil:
		return 0
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case int64:
		return t
	case uint32:
		return int64(t)
	case float32:
		return floatMillis(float64(t))
	case float64:
		return floatMillis(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return floatMillis(f)
		}
		return 0
	case string:
		return parseString(t)
	case time.Time:
		if t.IsZero() {
			return 0
		}
		return t.UnixMilli()
	case *time.Time:
		if t == nil {
			return 0
		}
		return Millis(*t)
	case Timestamp:
		return t.Seconds*1000 + t.Nanoseconds/int64(time.Millisecond)
	case *Timestamp:
		if t == nil {
			return 0
		}
		return Millis(*t)
	case interface{ AsTime() time.Time }:
		return Millis(t.AsTime())
	case map[string]any:
		secs, ok := t["seconds"]
		if !ok {
			secs, ok = t["_seconds"]
		}
		if !ok {
			return 0
		}
		ms := Millis(secs) * 1000
		if ns, ok := t["nanoseconds"]; ok {
			ms += Millis(ns) / int64(time.Millisecond)
		}
		return ms
	}
	return 0
}

func floatMillis(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0
	}
	return int64(f)
}

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
	"2006",
}

// minNumericDigits separates epoch-millis strings from short ISO years.
const minNumericDigits = 9

func parseString(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if len(strings.TrimLeft(s, "+-")) >= minNumericDigits {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}

// FromMillis converts epoch millis back to a UTC time.  Zero stays zero.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
