package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Clock
		wantErr bool
	}{
		{name: "midnight", input: "00:00", want: Clock{0, 0}},
		{name: "morning", input: "09:30", want: Clock{9, 30}},
		{name: "single digit hour", input: "9:05", want: Clock{9, 5}},
		{name: "last minute", input: "23:59", want: Clock{23, 59}},
		{name: "hour out of range", input: "24:00", wantErr: true},
		{name: "garbage", input: "nine", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidClock) {
					t.Errorf("ParseClock(%q) error = %v, want %v", tt.input, err, ErrInvalidClock)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseClock(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestClockAddMinutes(t *testing.T) {
	tests := []struct {
		name  string
		start Clock
		add   int
		want  Clock
	}{
		{name: "within hour", start: Clock{10, 0}, add: 30, want: Clock{10, 30}},
		{name: "carries into hour", start: Clock{10, 45}, add: 30, want: Clock{11, 15}},
		{name: "ends exactly at midnight", start: Clock{23, 0}, add: 60, want: Clock{24, 0}},
		{name: "no rollover past midnight", start: Clock{23, 30}, add: 60, want: Clock{24, 30}},
		{name: "zero", start: Clock{8, 15}, add: 0, want: Clock{8, 15}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.start.AddMinutes(tt.add)
			if got != tt.want {
				t.Errorf("%v.AddMinutes(%d) = %v, want %v", tt.start, tt.add, got, tt.want)
			}
		})
	}
}

func TestClockString(t *testing.T) {
	if got := (Clock{9, 5}).String(); got != "09:05" {
		t.Errorf("got %q, want %q", got, "09:05")
	}
	if got := (Clock{24, 30}).String(); got != "24:30" {
		t.Errorf("got %q, want %q", got, "24:30")
	}
	if got := ClockFromMinutes(1439); got != (Clock{23, 59}) {
		t.Errorf("ClockFromMinutes(1439) = %v", got)
	}
}

func TestOverlaps(t *testing.T) {
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	nextMonday := time.Date(2025, 3, 17, 0, 0, 0, 0, time.Local)
	c := func(h, m int) Clock { return Clock{h, m} }

	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd Clock
		aDate, bDate               time.Time
		want                       bool
	}{
		{
			name:   "partial overlap",
			aStart: c(10, 0), aEnd: c(11, 0), bStart: c(10, 30), bEnd: c(11, 30),
			aDate: monday, bDate: monday, want: true,
		},
		{
			name:   "contained",
			aStart: c(10, 0), aEnd: c(12, 0), bStart: c(10, 30), bEnd: c(11, 0),
			aDate: monday, bDate: monday, want: true,
		},
		{
			name:   "identical",
			aStart: c(10, 0), aEnd: c(11, 0), bStart: c(10, 0), bEnd: c(11, 0),
			aDate: monday, bDate: monday, want: true,
		},
		{
			name:   "touching boundary",
			aStart: c(10, 0), aEnd: c(11, 0), bStart: c(11, 0), bEnd: c(12, 0),
			aDate: monday, bDate: monday, want: false,
		},
		{
			name:   "disjoint",
			aStart: c(8, 0), aEnd: c(9, 0), bStart: c(15, 0), bEnd: c(16, 0),
			aDate: monday, bDate: monday, want: false,
		},
		{
			name:   "same weekday different date",
			aStart: c(10, 0), aEnd: c(11, 0), bStart: c(10, 0), bEnd: c(11, 0),
			aDate: monday, bDate: nextMonday, want: false,
		},
		{
			name:   "same date different time of day",
			aStart: c(10, 0), aEnd: c(11, 0), bStart: c(10, 15), bEnd: c(10, 45),
			aDate: monday.Add(9 * time.Hour), bDate: monday, want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd, tt.aDate, tt.bDate)
			if got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
			// symmetric
			rev := Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd, tt.bDate, tt.aDate)
			if rev != got {
				t.Errorf("Overlaps not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestOverlapMinutes(t *testing.T) {
	if got := OverlapMinutes(Clock{9, 0}, Clock{10, 30}, Clock{10, 0}, Clock{11, 0}); got != 30 {
		t.Errorf("got %d, want 30", got)
	}
	if got := OverlapMinutes(Clock{9, 0}, Clock{10, 0}, Clock{10, 0}, Clock{11, 0}); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}
