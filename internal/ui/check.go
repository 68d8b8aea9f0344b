package ui

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/barre/internal/conflict"
	"github.com/javiermolinar/barre/internal/dateutil"
)

func (a *App) checkCmd() *cobra.Command {
	var (
		startDate string
		endDate   string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Audit the calendar for double-bookings",
		Long: `Scan placements for rooms booked twice and dancers in two rehearsals at
once. Room double-bookings make the command fail; dancer overlaps are
reported only.

Without dates the whole calendar is checked.`,
		Example: `  barre check
  barre check --start 2025-03-01 --end 2025-03-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			var r *dateutil.DateRange
			if startDate != "" || endDate != "" {
				var err error
				if r, err = dateutil.NewDateRange(startDate, endDate); err != nil {
					return err
				}
			}

			session, _, err := a.loadSession(ctx, r)
			if err != nil {
				return err
			}
			catalog := session.Catalog()

			findings := conflict.Scan(session.Working())
			var rooms, dancers int
			for _, f := range findings {
				switch f.Kind {
				case conflict.KindRoom:
					rooms++
					_, _ = fmt.Fprintf(out, "%s %s %s: %q %s-%s overlaps %q %s-%s\n",
						formatError(markRoom), f.First.DateKey(), catalog.RoomName(f.First.RoomID),
						title(f.First), f.First.Start, f.First.End(),
						title(f.Second), f.Second.Start, f.Second.End(),
					)
				case conflict.KindDancer:
					dancers++
					names := make([]string, len(f.DancerIDs))
					for i, id := range f.DancerIDs {
						names[i] = catalog.DancerName(id)
					}
					_, _ = fmt.Fprintf(out, "%s %s %s: %q in %s %s-%s and %q in %s %s-%s\n",
						formatWarn(markDancer), f.First.DateKey(), strings.Join(names, ", "),
						title(f.First), catalog.RoomName(f.First.RoomID), f.First.Start, f.First.End(),
						title(f.Second), catalog.RoomName(f.Second.RoomID), f.Second.Start, f.Second.End(),
					)
				}
			}

			if len(findings) == 0 {
				_, _ = fmt.Fprintln(out, formatOK("No conflicts"))
				return nil
			}
			_, _ = fmt.Fprintln(out, formatMuted(fmt.Sprintf("%d room double-booking(s), %d dancer overlap(s)", rooms, dancers)))
			if conflict.HasRoomConflicts(findings) {
				return fmt.Errorf("%d room double-booking(s) found", rooms)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "End date (YYYY-MM-DD, defaults to start date)")

	return cmd
}
