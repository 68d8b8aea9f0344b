package ui

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/barre/internal/db"
	"github.com/javiermolinar/barre/internal/dateutil"
	"github.com/javiermolinar/barre/internal/schedule"
)

func (a *App) listCmd() *cobra.Command {
	var (
		startDate string
		endDate   string
		room      string
		routine   string
		dancer    string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List placements in a date range",
		Long: `List all placements scheduled within a date range.

If no dates are specified, lists today's placements.
If only --start is specified, lists placements for that single day.
If both --start and --end are specified, lists placements in that range (inclusive).

--json prints the placements as wire records:
  {"id", "routineId", "roomId", "date", "startMinutes", "duration"}`,
		Example: `  barre list
  barre list --start=2025-03-10 --end=2025-03-16 --room "Studio 1"
  barre list --start=2025-03-10 --dancer Ana --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			dateRange, err := dateutil.NewDateRange(startDate, endDate)
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			catalog, err := store.Catalog(ctx)
			if err != nil {
				return fmt.Errorf("loading catalog: %w", err)
			}

			filter := db.PlacementFilter{Range: dateRange}
			if room != "" {
				r, ok := catalog.FindRoom(room)
				if !ok {
					return fmt.Errorf("%w: %q", schedule.ErrRoomNotFound, room)
				}
				filter.RoomID = r.ID
			}
			if routine != "" {
				r, ok := catalog.FindRoutine(routine)
				if !ok {
					return fmt.Errorf("%w: %q", schedule.ErrRoutineNotFound, routine)
				}
				filter.RoutineID = r.ID
			}
			if dancer != "" {
				d, ok := catalog.FindDancer(dancer)
				if !ok {
					return fmt.Errorf("%w: %q", schedule.ErrDancerNotFound, dancer)
				}
				filter.DancerID = d.ID
			}

			placements, err := store.ListPlacementsFiltered(ctx, filter)
			if err != nil {
				return fmt.Errorf("listing placements: %w", err)
			}

			if asJSON {
				records := make([]schedule.Record, len(placements))
				for i, p := range placements {
					records[i] = schedule.ToRecord(p)
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			if len(placements) == 0 {
				_, _ = fmt.Fprintln(out, "No placements found in the specified date range.")
				return nil
			}

			// Print placements grouped by date
			var currentDate string
			for _, p := range placements {
				p = catalog.Resolve(p)
				date := p.DateKey()
				if date != currentDate {
					if currentDate != "" {
						_, _ = fmt.Fprintln(out)
					}
					_, _ = fmt.Fprintln(out, formatHeader(fmt.Sprintf("=== %s %s ===", date, p.Date.Format("Mon"))))
					currentDate = date
				}

				_, _ = fmt.Fprintf(out, "  %s-%s %-24s %-14s %s\n",
					p.Start,
					p.End(),
					title(p),
					catalog.RoomName(p.RoomID),
					formatMuted(p.ID),
				)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "Start date (YYYY-MM-DD, defaults to today)")
	cmd.Flags().StringVar(&endDate, "end", "", "End date (YYYY-MM-DD, defaults to start date)")
	cmd.Flags().StringVar(&room, "room", "", "Only placements in this room (id or name)")
	cmd.Flags().StringVar(&routine, "routine", "", "Only placements of this routine (id or title)")
	cmd.Flags().StringVar(&dancer, "dancer", "", "Only placements this dancer is in (id or name)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print wire records as JSON")

	return cmd
}
