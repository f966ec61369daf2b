package calendar

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/community-hub/internal/model"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 14, hour, min, 0, 0, time.UTC)
}

func TestOverlapHalfOpen(t *testing.T) {
	cases := []struct {
		name       string
		a0, a1     time.Time
		b0, b1     time.Time
		wantResult bool
	}{
		{"partial", at(10, 0), at(11, 0), at(10, 30), at(11, 30), true},
		{"touching end", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"touching start", at(10, 0), at(11, 0), at(9, 0), at(10, 0), false},
		{"contained", at(10, 0), at(12, 0), at(10, 30), at(11, 0), true},
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"disjoint", at(8, 0), at(9, 0), at(10, 0), at(11, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlap(tc.a0, tc.a1, tc.b0, tc.b1); got != tc.wantResult {
				t.Errorf("Overlap(a,b) = %v, want %v", got, tc.wantResult)
			}
			if got := Overlap(tc.b0, tc.b1, tc.a0, tc.a1); got != tc.wantResult {
				t.Errorf("Overlap(b,a) = %v, want %v", got, tc.wantResult)
			}
		})
	}
}

func TestOverlapMixedRepresentations(t *testing.T) {
	start := at(10, 0)
	end := at(11, 0)
	iso := "2026-03-14T10:30:00Z"
	ts := Timestamp{Seconds: at(10, 45).Unix()}
	if !Overlap(start.UnixMilli(), end.Format(time.RFC3339), iso, ts) {
		t.Error("expected overlap across millis, ISO string and provider timestamp")
	}
	if Overlap("garbage", "also garbage", iso, ts) {
		t.Error("two unparseable endpoints should not overlap a real interval")
	}
}

func TestMillisForms(t *testing.T) {
	want := at(10, 0).UnixMilli()
	var decoded map[string]any
	if err := json.Unmarshal([]byte(`{"seconds":`+jsonInt(at(10, 0).Unix())+`,"nanoseconds":0}`), &decoded); err != nil {
		t.Fatal(err)
	}
	inputs := map[string]any{
		"int64":         want,
		"float64":       float64(want),
		"json.Number":   json.Number(jsonInt(want)),
		"numeric text":  jsonInt(want),
		"rfc3339":       "2026-03-14T10:00:00Z",
		"rfc3339 nano":  "2026-03-14T10:00:00.000Z",
		"offset":        "2026-03-14T12:00:00+02:00",
		"time.Time":     at(10, 0),
		"timestamp":     Timestamp{Seconds: at(10, 0).Unix()},
		"decoded map":   decoded,
		"ptr timestamp": &Timestamp{Seconds: at(10, 0).Unix()},
	}
	for name, in := range inputs {
		if got := Millis(in); got != want {
			t.Errorf("%s: Millis = %d, want %d", name, got, want)
		}
	}

	for _, bad := range []any{nil, "", "not a date", time.Time{}, struct{}{}, map[string]any{"x": 1}} {
		if got := Millis(bad); got != 0 {
			t.Errorf("Millis(%#v) = %d, want 0", bad, got)
		}
	}
}

func TestIntervalValid(t *testing.T) {
	if !NewInterval(at(10, 0), at(11, 0)).Valid() {
		t.Error("expected valid interval")
	}
	if NewInterval(at(11, 0), at(11, 0)).Valid() {
		t.Error("empty interval must be invalid")
	}
	if NewInterval(at(11, 0), at(10, 0)).Valid() {
		t.Error("reversed interval must be invalid")
	}
	if NewInterval("nope", at(10, 0)).Valid() {
		t.Error("unparseable start must be invalid")
	}
}

func TestExportICS(t *testing.T) {
	out := ExportICS([]model.Booking{{
		ID: "b1", Title: "Band practice", Start: at(10, 0), End: at(11, 0), UserName: "Ana",
	}}, at(9, 0))
	for _, want := range []string{"BEGIN:VCALENDAR", "BEGIN:VEVENT", "SUMMARY:Band practice", "UID:b1@community-hub", "DTSTART"} {
		if !strings.Contains(out, want) {
			t.Errorf("ICS output missing %q:\n%s", want, out)
		}
	}
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestMillisShortNumericStringsAreYears(t *testing.T) {
	if got, want := Millis("2026"), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli(); got != want {
		t.Errorf(`Millis("2026") = %d, want %d`, got, want)
	}
	if got, want := Millis("2026-03"), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).UnixMilli(); got != want {
		t.Errorf(`Millis("2026-03") = %d, want %d`, got, want)
	}
	if got := Millis("123456789"); got != 123456789 {
		t.Errorf("nine digits should be millis, got %d", got)
	}
	if got := Millis("2026-03-14T10:00:00"); got != at(10, 0).UnixMilli() {
		t.Errorf("zone-less ISO should read as UTC, got %d", got)
	}
}

func TestRepresentableRange(t *testing.T) {
	if !InRange(MinMillis) || !InRange(MaxMillis) || InRange(MinMillis-1) || InRange(MaxMillis+1) {
		t.Error("range bounds are off by one")
	}
	if got := FromMillis(MaxMillis); got.Year() != 9999 {
		t.Errorf("MaxMillis is in year %d", got.Year())
	}
	if _, err := json.Marshal(FromMillis(MaxMillis)); err != nil {
		t.Errorf("MaxMillis must encode as JSON: %v", err)
	}
	if NewInterval(at(10, 0), int64(253402300800000)).Valid() {
		t.Error("interval ending in year 10000 must be invalid")
	}
	if Millis(1e300) != 0 {
		t.Error("float beyond int64 should not parse")
	}
}
