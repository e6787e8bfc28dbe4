package timestamp

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"01:02:03", 3723, true},
		{"02:30", 150, true},
		{"45", 45, true},
		{"1:23.5", 83.5, true},
		{"the clip starts at 1:23", 83, true},
		{"  [00:10] ", 10, true},
		{"Timestamp: 12:30 - 13:30", 750, true},
		{"garbage", 0, false},
		{"", 0, false},
		{"::", 0, false},
		{"99999999999999999999:00", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Parse(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok=%v, want %v", tt.in, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Fatalf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := map[float64]string{
		0:     "00:00",
		30:    "00:30",
		150:   "02:30",
		3723:  "62:03",
		240.5: "04:00",
		33.4:  "00:33",
		-3:    "00:00",
	}
	for in, want := range tests {
		if got := Format(in); got != want {
			t.Fatalf("Format(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormat_RoundTripsWholeSeconds(t *testing.T) {
	for _, sec := range []float64{0, 20, 59, 61, 240, 599, 3600} {
		got, ok := Parse(Format(sec))
		if !ok || got != sec {
			t.Fatalf("round trip %v -> %q -> %v (ok=%v)", sec, Format(sec), got, ok)
		}
	}
	if got, _ := Parse(Format(240.5)); got != 240 {
		t.Fatalf("expected fractional seconds to be dropped, got %v", got)
	}
}
