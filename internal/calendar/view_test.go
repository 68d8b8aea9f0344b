package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/javiermolinar/barre/internal/dateutil"
)

func keys(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = dateutil.DateKey(d)
	}
	return out
}

func equalKeys(t *testing.T, got []time.Time, want []string) {
	t.Helper()
	gotKeys := keys(got)
	if len(gotKeys) != len(want) {
		t.Fatalf("got %d dates %v, want %d %v", len(gotKeys), gotKeys, len(want), want)
	}
	for i := range want {
		if gotKeys[i] != want[i] {
			t.Fatalf("got %v, want %v", gotKeys, want)
		}
	}
}

func TestParseViewMode(t *testing.T) {
	tests := map[string]ViewMode{
		"day":   ViewDay,
		"4day":  ViewFourDay,
		"4-day": ViewFourDay,
		"Week":  ViewWeek,
		"month": ViewMonth,
	}
	for in, want := range tests {
		got, err := ParseViewMode(in)
		if err != nil {
			t.Fatalf("ParseViewMode(%q): unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseViewMode(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseViewMode("year"); !errors.Is(err, ErrInvalidViewMode) {
		t.Errorf("got error %v, want %v", err, ErrInvalidViewMode)
	}
}

func TestDatesForView(t *testing.T) {
	// Wednesday, March 12 2025, mid-afternoon
	anchor := time.Date(2025, 3, 12, 15, 30, 0, 0, time.Local)

	t.Run("day", func(t *testing.T) {
		got := DatesForView(anchor, ViewDay)
		equalKeys(t, got, []string{"2025-03-12"})
		if got[0].Hour() != 0 || got[0].Minute() != 0 {
			t.Errorf("expected midnight, got %v", got[0])
		}
	})

	t.Run("4day starts at anchor", func(t *testing.T) {
		equalKeys(t, DatesForView(anchor, ViewFourDay),
			[]string{"2025-03-12", "2025-03-13", "2025-03-14", "2025-03-15"})
	})

	t.Run("week is Sunday first", func(t *testing.T) {
		got := DatesForView(anchor, ViewWeek)
		equalKeys(t, got, []string{
			"2025-03-09", "2025-03-10", "2025-03-11", "2025-03-12",
			"2025-03-13", "2025-03-14", "2025-03-15",
		})
		if got[0].Weekday() != time.Sunday {
			t.Errorf("first day is %v, want Sunday", got[0].Weekday())
		}
	})

	t.Run("week anchored on Sunday", func(t *testing.T) {
		sunday := time.Date(2025, 3, 9, 8, 0, 0, 0, time.Local)
		got := DatesForView(sunday, ViewWeek)
		if dateutil.DateKey(got[0]) != "2025-03-09" {
			t.Errorf("got start %s, want 2025-03-09", dateutil.DateKey(got[0]))
		}
	})

	t.Run("week anchored on Saturday", func(t *testing.T) {
		saturday := time.Date(2025, 3, 15, 8, 0, 0, 0, time.Local)
		got := DatesForView(saturday, ViewWeek)
		if dateutil.DateKey(got[6]) != "2025-03-15" {
			t.Errorf("got end %s, want 2025-03-15", dateutil.DateKey(got[6]))
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		if got := DatesForView(anchor, ViewMode("year")); got != nil {
			t.Errorf("got %v, want nil", got)
		}
	})
}

func TestDatesForViewMonth(t *testing.T) {
	tests := []struct {
		name      string
		anchor    time.Time
		wantFirst string
		wantLast  string
		wantLen   int
	}{
		// March 2025: 1st is Saturday, 31st is Monday
		{"march 2025", time.Date(2025, 3, 12, 0, 0, 0, 0, time.Local), "2025-02-23", "2025-04-05", 42},
		// February 2026: 1st is Sunday, 28th is Saturday
		{"february exact four weeks", time.Date(2026, 2, 14, 0, 0, 0, 0, time.Local), "2026-02-01", "2026-02-28", 28},
		// February 2024 is a leap month
		{"leap february", time.Date(2024, 2, 29, 0, 0, 0, 0, time.Local), "2024-01-28", "2024-03-02", 35},
		{"december spans new year", time.Date(2025, 12, 25, 0, 0, 0, 0, time.Local), "2025-11-30", "2026-01-03", 35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DatesForView(tt.anchor, ViewMonth)
			if len(got) != tt.wantLen {
				t.Fatalf("got %d dates, want %d", len(got), tt.wantLen)
			}
			if len(got)%7 != 0 {
				t.Errorf("length %d is not a multiple of 7", len(got))
			}
			if got[0].Weekday() != time.Sunday {
				t.Errorf("first weekday %v, want Sunday", got[0].Weekday())
			}
			if k := dateutil.DateKey(got[0]); k != tt.wantFirst {
				t.Errorf("first %s, want %s", k, tt.wantFirst)
			}
			if k := dateutil.DateKey(got[len(got)-1]); k != tt.wantLast {
				t.Errorf("last %s, want %s", k, tt.wantLast)
			}
			for i := 1; i < len(got); i++ {
				if dateutil.DateKey(dateutil.AddDays(got[i-1], 1)) != dateutil.DateKey(got[i]) {
					t.Fatalf("dates not consecutive at %d: %v", i, keys(got))
				}
			}
		})
	}
}

func TestDatesForViewMonthAllMonths(t *testing.T) {
	for year := 2024; year <= 2026; year++ {
		for month := time.January; month <= time.December; month++ {
			anchor := time.Date(year, month, 10, 12, 0, 0, 0, time.Local)
			got := DatesForView(anchor, ViewMonth)
			first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
			last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local)

			if len(got)%7 != 0 || got[0].Weekday() != time.Sunday {
				t.Fatalf("%d-%02d: bad grid %v", year, month, keys(got))
			}
			ks := keys(got)
			if !containsKey(ks, dateutil.DateKey(first)) || !containsKey(ks, dateutil.DateKey(last)) {
				t.Errorf("%d-%02d: grid does not include first and last day", year, month)
			}
		}
	}
}

func containsKey(ks []string, k string) bool {
	for _, v := range ks {
		if v == k {
			return true
		}
	}
	return false
}

func TestDatesForViewIsPure(t *testing.T) {
	anchor := time.Date(2025, 3, 12, 9, 0, 0, 0, time.Local)
	for _, mode := range Modes {
		a := keys(DatesForView(anchor, mode))
		b := keys(DatesForView(anchor, mode))
		if len(a) != len(b) {
			t.Fatalf("%s: lengths differ", mode)
		}
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("%s: results differ: %v vs %v", mode, a, b)
			}
		}
	}
}

func TestStep(t *testing.T) {
	anchor := time.Date(2025, 1, 31, 0, 0, 0, 0, time.Local)
	tests := []struct {
		mode  ViewMode
		delta int
		want  string
	}{
		{ViewDay, 1, "2025-02-01"},
		{ViewDay, -1, "2025-01-30"},
		{ViewFourDay, 1, "2025-02-04"},
		{ViewFourDay, -1, "2025-01-27"},
		{ViewWeek, 1, "2025-02-07"},
		{ViewWeek, -2, "2025-01-17"},
		{ViewMonth, 1, "2025-02-28"},
		{ViewMonth, -1, "2024-12-31"},
		{ViewMonth, 13, "2026-02-28"},
	}
	for _, tt := range tests {
		got := Step(anchor, tt.mode, tt.delta)
		if k := dateutil.DateKey(got); k != tt.want {
			t.Errorf("Step(%s, %d) = %s, want %s", tt.mode, tt.delta, k, tt.want)
		}
	}

	if k := dateutil.DateKey(Next(anchor, ViewWeek)); k != "2025-02-07" {
		t.Errorf("Next = %s", k)
	}
	if k := dateutil.DateKey(Prev(anchor, ViewDay)); k != "2025-01-30" {
		t.Errorf("Prev = %s", k)
	}
}

func TestStepLeapYearMonth(t *testing.T) {
	anchor := time.Date(2024, 1, 31, 0, 0, 0, 0, time.Local)
	if k := dateutil.DateKey(Next(anchor, ViewMonth)); k != "2024-02-29" {
		t.Errorf("got %s, want 2024-02-29", k)
	}
}
