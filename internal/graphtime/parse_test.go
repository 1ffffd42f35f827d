package graphtime

import (
	"strings"
	"testing"
	"time"
)

func TestParseZonedForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			name: "utc marker no fraction",
			raw:  "2025-08-25T14:00:00Z",
			want: time.Date(2025, 8, 25, 14, 0, 0, 0, time.UTC),
		},
		{
			name: "graph seven digit fraction",
			raw:  "2025-08-25T14:00:00.1234567Z",
			want: time.Date(2025, 8, 25, 14, 0, 0, 123456000, time.UTC),
		},
		{
			name: "short fraction right padded",
			raw:  "2025-08-25T14:00:00.5Z",
			want: time.Date(2025, 8, 25, 14, 0, 0, 500000000, time.UTC),
		},
		{
			name: "nine digit fraction truncated",
			raw:  "2025-08-25T14:00:00.123456789Z",
			want: time.Date(2025, 8, 25, 14, 0, 0, 123456000, time.UTC),
		},
		{
			name: "positive offset",
			raw:  "2025-08-25T14:00:00.123+02:00",
			want: time.Date(2025, 8, 25, 12, 0, 0, 123000000, time.UTC),
		},
		{
			name: "negative offset",
			raw:  "2025-08-25T14:00:00-06:00",
			want: time.Date(2025, 8, 25, 20, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.raw, err)
			}
			if !inst.Zoned {
				t.Errorf("Parse(%q): expected zoned instant", tt.raw)
			}
			if !inst.Time.Equal(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.raw, inst.Time, tt.want)
			}
		})
	}
}

func TestParseTruncationEquivalence(t *testing.T) {
	// For any fraction length, the result must equal the same instant parsed
	// with the fraction truncated to six digits.
	digits := "123456789"
	for n := 0; n <= len(digits); n++ {
		raw := "2025-08-25T14:00:00"
		if n > 0 {
			raw += "." + digits[:n]
		}
		raw += "Z"

		trunc := digits[:n]
		if len(trunc) > 6 {
			trunc = trunc[:6]
		}
		ref := "2025-08-25T14:00:00"
		if trunc != "" {
			ref += "." + trunc
		}
		ref += "Z"

		got, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", raw, err)
		}
		want, err := Parse(ref)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", ref, err)
		}
		if !got.Time.Equal(want.Time) {
			t.Errorf("Parse(%q) = %v, want same instant as %q (%v)", raw, got.Time, ref, want.Time)
		}
	}
}

func TestParseNaive(t *testing.T) {
	for _, raw := range []string{
		"2025-08-25T14:00:00",
		"2025-08-25T14:00:00.0000000",
	} {
		inst, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", raw, err)
		}
		if inst.Zoned {
			t.Errorf("Parse(%q): expected unzoned instant", raw)
		}
		if inst.Time.Hour() != 14 || inst.Time.Day() != 25 {
			t.Errorf("Parse(%q): wall clock fields wrong: %v", raw, inst.Time)
		}
	}
}

func TestParseRecovery(t *testing.T) {
	// Junk after the fraction defeats the primary parse; the recovery path
	// strips the fraction and forces a UTC offset.
	inst, err := Parse("2025-08-25T14:00:00.123abcZ")
	if err != nil {
		t.Fatalf("recovery parse failed: %v", err)
	}
	want := time.Date(2025, 8, 25, 14, 0, 0, 0, time.UTC)
	if !inst.Zoned || !inst.Time.Equal(want) {
		t.Errorf("recovery parse = %v (zoned=%v), want %v zoned", inst.Time, inst.Zoned, want)
	}
}

func TestParseMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"not-a-date",
		"2025-13-45T99:99:99Z",
		"25/08/2025 2pm",
	} {
		if _, err := Parse(raw); err == nil {
			t.Errorf("Parse(%q): expected error", raw)
		} else if !strings.Contains(err.Error(), "cannot parse") && raw != "" {
			t.Errorf("Parse(%q): unexpected error text: %v", raw, err)
		}
	}
}

func TestInstantIn(t *testing.T) {
	loc := time.FixedZone("UTC-6", -6*3600)

	// Zoned instants convert.
	zoned, err := Parse("2025-08-25T15:30:00Z")
	if err != nil {
		t.Fatal(err)
	}
	local := zoned.In(loc)
	if local.Time.Hour() != 9 || local.Time.Minute() != 30 {
		t.Errorf("zoned In = %v, want 09:30 local", local.Time)
	}

	// Unzoned instants keep their wall clock.
	naive, err := Parse("2025-08-25T15:30:00")
	if err != nil {
		t.Fatal(err)
	}
	reinterpreted := naive.In(loc)
	if reinterpreted.Time.Hour() != 15 || reinterpreted.Time.Minute() != 30 {
		t.Errorf("naive In = %v, want wall clock 15:30 kept", reinterpreted.Time)
	}
	if !reinterpreted.Zoned {
		t.Error("In must produce a zoned instant")
	}
}
