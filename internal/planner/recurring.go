package planner

import "github.com/javiermolinar/barre/internal/dateutil"

// WeeklyTargets expands target into weeks independent targets, one per week
// starting at target.Date. Each is proposed separately; there is no
// recurrence entity.
func WeeklyTargets(target Target, weeks int) []Target {
	if weeks < 1 {
		weeks = 1
	}
	out := make([]Target, weeks)
	for i := range weeks {
		t := target
		t.Date = dateutil.AddDays(dateutil.TruncateToDay(target.Date), 7*i)
		out[i] = t
	}
	return out
}
