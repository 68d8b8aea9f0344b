package ui

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/barre/internal/conflict"
	"github.com/javiermolinar/barre/internal/dateutil"
	"github.com/javiermolinar/barre/internal/planner"
	"github.com/javiermolinar/barre/internal/schedule"
	"github.com/javiermolinar/barre/internal/tui"
)

// placementLine renders a placement as "2025-03-10 18:00-19:00 Rhapsody in Studio 1".
func placementLine(p schedule.Placement, c *schedule.Catalog) string {
	return fmt.Sprintf("%s %s-%s %s in %s", p.DateKey(), p.Start, p.End(), title(p), c.RoomName(p.RoomID))
}

// printRejection reports a hard rejection and returns true, or returns false
// when err is something else.
func printRejection(w io.Writer, err error) bool {
	var rej *planner.Rejection
	if !errors.As(err, &rej) {
		return false
	}
	_, _ = fmt.Fprintf(w, "%s %v\n", formatError("✗"), rej)
	return true
}

// printSaveResult prints the outcome of a save and turns item failures into
// a single error.
func printSaveResult(w io.Writer, report planner.SaveReport, err error) error {
	if err != nil {
		var saveErr *planner.SaveError
		if !errors.As(err, &saveErr) {
			return fmt.Errorf("saving: %w", err)
		}
		for _, f := range saveErr.Failures {
			if !printRejection(w, f.Err) {
				_, _ = fmt.Fprintf(w, "%s %s %s: %v\n", formatError("✗"), f.Op, f.PlacementID, f.Err)
			}
		}
	}

	saved := len(report.Created) + len(report.Updated) + len(report.Deleted)
	if saved > 0 {
		_, _ = fmt.Fprintln(w, formatMuted(fmt.Sprintf("Saved %d change(s): %d created, %d updated, %d deleted",
			saved, len(report.Created), len(report.Updated), len(report.Deleted))))
	}
	if len(report.Failures) > 0 {
		return fmt.Errorf("%d change(s) could not be saved", len(report.Failures))
	}
	return nil
}

// warnTarget prints advisories that never block a placement: past dates and
// times outside opening hours.
func (a *App) warnTarget(w io.Writer, p schedule.Placement) {
	if err := dateutil.RequireNotPast(p.Date, a.now()); err != nil {
		_, _ = fmt.Fprintf(w, "%s %s is in the past\n", formatWarn("!"), p.DateKey())
	}
	opening, closing := a.config.OpeningHours()
	if p.Start.Before(opening) || closing.Before(p.End()) {
		_, _ = fmt.Fprintf(w, "%s %s-%s is outside opening hours %s-%s\n",
			formatWarn("!"), p.Start, p.End(), opening, closing)
	}
}

// settlePending asks whether to keep a placement that double-books dancers.
// It confirms or cancels the session's pending candidate and reports whether
// the placement was applied.
func (a *App) settlePending(cmd *cobra.Command, session *planner.Session, outcome planner.Outcome, yes bool) (schedule.Placement, bool, error) {
	out := cmd.OutOrStdout()
	catalog := session.Catalog()
	lines := conflict.Describe(outcome.Conflicts, catalog.DancerName)
	heading := placementLine(outcome.Placement, catalog)

	ok, err := a.confirm(cmd, heading, lines, yes)
	if err != nil {
		_ = session.Cancel()
		return schedule.Placement{}, false, err
	}
	if !ok {
		if err := session.Cancel(); err != nil {
			return schedule.Placement{}, false, err
		}
		_, _ = fmt.Fprintf(out, "%s skipped %s, dancer conflicts:\n", formatWarn("!"), heading)
		for _, line := range lines {
			_, _ = fmt.Fprintf(out, "    %s\n", line)
		}
		if !yes && !isTerminal(a.in) {
			_, _ = fmt.Fprintln(out, formatMuted("    use --yes to schedule anyway"))
		}
		return schedule.Placement{}, false, nil
	}

	p, err := session.Confirm()
	if err != nil {
		return schedule.Placement{}, false, err
	}
	for _, line := range lines {
		_, _ = fmt.Fprintf(out, "%s %s\n", formatWarn("!"), line)
	}
	return p, true, nil
}

// confirm asks on the terminal. Without a terminal the answer is no unless
// yes is set.
func (a *App) confirm(cmd *cobra.Command, heading string, lines []string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	if !isTerminal(a.in) {
		return false, nil
	}
	return tui.Confirm(cmd.Context(), a.in, cmd.OutOrStdout(), tui.NewConfirm(heading, lines, a.theme()))
}
