package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/barre/internal/db"
	"github.com/javiermolinar/barre/internal/dateutil"
	"github.com/javiermolinar/barre/internal/planner"
	"github.com/javiermolinar/barre/internal/schedule"
)

func (a *App) moveCmd() *cobra.Command {
	var (
		room  string
		date  string
		start string
		yes   bool
	)

	cmd := &cobra.Command{
		Use:   "move <placement-id>",
		Short: "Move a placement to another room, date or time",
		Long: `Move a placement. Flags that are not given keep their current value.

Example:
  barre move 01JP3Z8J6X7Q --start 19:00
  barre move 01JP3Z8J6X7Q --room "Studio 2" --date tomorrow`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			current, err := a.getPlacement(ctx, id)
			if err != nil {
				return err
			}
			target := planner.Target{RoomID: current.RoomID, Date: current.Date, Start: current.Start}
			if date != "" {
				if target.Date, err = dateutil.ParseRelativeDate(date, a.now()); err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}
			if start != "" {
				if target.Start, err = schedule.ParseClock(start); err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
			}

			session, store, err := a.loadSession(ctx, spanning(current.Date, target.Date))
			if err != nil {
				return err
			}
			if room != "" {
				r, ok := session.Catalog().FindRoom(room)
				if !ok {
					return fmt.Errorf("%w: %q", schedule.ErrRoomNotFound, room)
				}
				target.RoomID = r.ID
			}

			outcome, err := session.MovePlacement(id, target)
			return a.finishEdit(cmd, session, store, outcome, err, yes)
		},
	}

	cmd.Flags().StringVarP(&room, "room", "r", "", "New room id or name")
	cmd.Flags().StringVarP(&date, "date", "d", "", "New date (YYYY-MM-DD, tomorrow, monday, ...)")
	cmd.Flags().StringVarP(&start, "start", "s", "", "New start time (HH:MM)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Move despite dancer conflicts")

	return cmd
}

func (a *App) resizeCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "resize <placement-id> <minutes>",
		Short: "Change how long a placement lasts",
		Long: `Change a placement's length, keeping its start.

Example:
  barre resize 01JP3Z8J6X7Q 90`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			minutes, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", args[1], schedule.ErrInvalidDuration)
			}

			current, err := a.getPlacement(ctx, id)
			if err != nil {
				return err
			}
			session, store, err := a.loadSession(ctx, spanning(current.Date, current.Date))
			if err != nil {
				return err
			}

			outcome, err := session.ResizeDuration(id, minutes)
			return a.finishEdit(cmd, session, store, outcome, err, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Resize despite dancer conflicts")

	return cmd
}

func (a *App) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <placement-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a placement",
		Long: `Remove a placement by its ID.

Example:
  barre remove 01JP3Z8J6X7Q`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			id := args[0]

			current, err := a.getPlacement(ctx, id)
			if err != nil {
				return err
			}
			session, store, err := a.loadSession(ctx, spanning(current.Date, current.Date))
			if err != nil {
				return err
			}
			p, _ := session.Placement(id)
			if err := session.DeletePlacement(id); err != nil {
				return err
			}

			report, err := session.Save(ctx, store)
			if err := printSaveResult(out, report, err); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Removed %s\n", placementLine(p, session.Catalog()))
			return nil
		},
	}
}

// finishEdit settles the outcome of a move or resize and saves it.
func (a *App) finishEdit(cmd *cobra.Command, session *planner.Session, store *db.SQLite, outcome planner.Outcome, err error, yes bool) error {
	out := cmd.OutOrStdout()
	if err != nil {
		return err
	}

	p := outcome.Placement
	if outcome.Status == planner.StatusPending {
		var applied bool
		p, applied, err = a.settlePending(cmd, session, outcome, yes)
		if err != nil || !applied {
			return err
		}
	}
	if !session.IsDirty() {
		_, _ = fmt.Fprintln(out, "Nothing changed")
		return nil
	}

	a.warnTarget(out, p)
	report, err := session.Save(cmd.Context(), store)
	if err := printSaveResult(out, report, err); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%s %s\n", formatOK("✓"), placementLine(p, session.Catalog()))
	return nil
}

func (a *App) getPlacement(ctx context.Context, id string) (schedule.Placement, error) {
	store, err := a.openStore()
	if err != nil {
		return schedule.Placement{}, err
	}
	p, err := store.GetPlacement(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return schedule.Placement{}, fmt.Errorf("%w: %s", planner.ErrNotFound, id)
	}
	return p, err
}

// spanning is the date range covering both a and b.
func spanning(a, b time.Time) *dateutil.DateRange {
	if dateutil.DateKey(b) < dateutil.DateKey(a) {
		a, b = b, a
	}
	return &dateutil.DateRange{Start: dateutil.TruncateToDay(a), End: dateutil.TruncateToDay(b)}
}
