package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/barre/internal/dateutil"
	"github.com/javiermolinar/barre/internal/planner"
	"github.com/javiermolinar/barre/internal/schedule"
)

type placeOptions struct {
	routine  string
	room     string
	date     string
	start    string
	duration int
	weeks    int
	yes      bool
}

func (a *App) placeCmd() *cobra.Command {
	var opts placeOptions

	cmd := &cobra.Command{
		Use:   "place <routine>",
		Short: "Place a routine in a room",
		Long: `Place a routine in a room at a date and start time.

The routine and room can be given by id or name. Without --duration the
routine's default length is used. With --weeks the same slot is booked on
that many consecutive weeks; each week is checked on its own.

A slot that is already taken is rejected. If a dancer in the routine is
already rehearsing elsewhere at that time you are asked whether to
schedule anyway; without a terminal the placement is skipped unless --yes
is given.`,
		Example: `  barre place Rhapsody --room "Studio 1" --date 2025-03-10 --start 18:00
  barre place Rhapsody --room "Studio 1" --date monday --start 18:00 --weeks 6 --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.routine = args[0]
			return a.runPlace(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.room, "room", "r", "", "Room id or name (required)")
	cmd.Flags().StringVarP(&opts.date, "date", "d", "", "Date (YYYY-MM-DD, today, tomorrow, monday, ..., default: today)")
	cmd.Flags().StringVarP(&opts.start, "start", "s", "", "Start time (HH:MM, required)")
	cmd.Flags().IntVar(&opts.duration, "duration", 0, "Length in minutes (default: routine length)")
	cmd.Flags().IntVarP(&opts.weeks, "weeks", "w", 1, "Repeat weekly for this many weeks")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Schedule despite dancer conflicts")

	_ = cmd.MarkFlagRequired("room")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func (a *App) runPlace(cmd *cobra.Command, opts placeOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	date, err := dateutil.ParseRelativeDate(opts.date, a.now())
	if err != nil {
		return fmt.Errorf("invalid --date: %w", err)
	}
	start, err := schedule.ParseClock(opts.start)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	if opts.weeks < 1 {
		return fmt.Errorf("--weeks must be at least 1")
	}

	targets := planner.WeeklyTargets(planner.Target{Date: date, Start: start, Duration: opts.duration}, opts.weeks)
	window := &dateutil.DateRange{Start: targets[0].Date, End: targets[len(targets)-1].Date}

	session, store, err := a.loadSession(ctx, window)
	if err != nil {
		return err
	}
	catalog := session.Catalog()

	routine, ok := catalog.FindRoutine(opts.routine)
	if !ok {
		return fmt.Errorf("%w: %q", schedule.ErrRoutineNotFound, opts.routine)
	}
	room, ok := catalog.FindRoom(opts.room)
	if !ok {
		return fmt.Errorf("%w: %q", schedule.ErrRoomNotFound, opts.room)
	}
	if opts.duration == 0 && routine.Duration == 0 {
		opts.duration = a.config.Studio.DefaultDuration
	}

	var rejected, skipped int
	for _, t := range targets {
		t.RoomID = room.ID
		t.Duration = opts.duration

		outcome, err := session.ProposePlacement(routine, t)
		if err != nil {
			if printRejection(out, err) {
				rejected++
				continue
			}
			return err
		}

		p := outcome.Placement
		if outcome.Status == planner.StatusPending {
			var applied bool
			p, applied, err = a.settlePending(cmd, session, outcome, opts.yes)
			if err != nil {
				return err
			}
			if !applied {
				skipped++
				continue
			}
		}
		a.warnTarget(out, p)
		_, _ = fmt.Fprintf(out, "%s %s\n", formatOK("✓"), placementLine(p, catalog))
	}

	report, err := session.Save(ctx, store)
	if err := printSaveResult(out, report, err); err != nil {
		return err
	}

	a.logger.Info("place finished",
		"routine", routine.ID,
		"room", room.ID,
		"weeks", len(targets),
		"rejected", rejected,
		"skipped", skipped,
	)
	if rejected > 0 {
		return fmt.Errorf("%d of %d placement(s) rejected", rejected, len(targets))
	}
	return nil
}
