package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/barre/internal/calendar"
	"github.com/javiermolinar/barre/internal/conflict"
	"github.com/javiermolinar/barre/internal/dateutil"
	"github.com/javiermolinar/barre/internal/schedule"
	"github.com/javiermolinar/barre/internal/tui"
)

const (
	markDancer = "!"
	markRoom   = "‼"

	monthCellLines = 3
)

func (a *App) viewCmd() *cobra.Command {
	var (
		mode   string
		date   string
		offset int
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show the rehearsal calendar",
		Long: `Show placements for a day, four days, a week (Sunday to Saturday)
or a month padded to whole weeks.

Placements marked ! share a dancer with an overlapping rehearsal.
Placements marked ‼ are double-booked in the same room.`,
		Example: `  barre view
  barre view --mode month --date 2025-03-01
  barre view --mode week --offset -1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runView(cmd, mode, date, offset)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "View: day, 4day, week, month (default from config)")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Date to show (YYYY-MM-DD, today, tomorrow, monday, ...)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Move the view forward or back by this many steps")

	return cmd
}

func (a *App) runView(cmd *cobra.Command, modeFlag, dateFlag string, offset int) error {
	mode := a.config.ViewMode()
	if modeFlag != "" {
		m, err := calendar.ParseViewMode(modeFlag)
		if err != nil {
			return err
		}
		mode = m
	}
	anchor, err := dateutil.ParseRelativeDate(dateFlag, a.now())
	if err != nil {
		return fmt.Errorf("invalid --date: %w", err)
	}
	anchor = calendar.Step(anchor, mode, offset)

	window, catalog, err := a.loadWindow(cmd.Context(), anchor, mode)
	if err != nil {
		return err
	}

	out := renderCalendar(calendarView{
		window:   window,
		catalog:  catalog,
		findings: conflict.Scan(window.Placements()),
		width:    termWidth(cmd.OutOrStdout()),
		styles:   tui.NewStyles(a.theme()),
	})
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

func (a *App) loadWindow(ctx context.Context, anchor time.Time, mode calendar.ViewMode) (*calendar.Window, *schedule.Catalog, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}
	catalog, err := store.Catalog(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading catalog: %w", err)
	}

	window := calendar.NewWindow(anchor, mode)
	r := window.Range()
	placements, err := store.ListPlacements(ctx, &r)
	if err != nil {
		return nil, nil, fmt.Errorf("listing placements: %w", err)
	}
	for i := range placements {
		placements[i] = catalog.Resolve(placements[i])
	}
	window.Fill(placements)
	return window, catalog, nil
}

// calendarView is everything renderCalendar needs.
type calendarView struct {
	window   *calendar.Window
	catalog  *schedule.Catalog
	findings []conflict.Finding
	width    int
	styles   tui.Styles
}

func renderCalendar(v calendarView) string {
	marks := conflictMarks(v.findings)

	var headers []string
	var rows [][]string
	if v.window.Mode == calendar.ViewMonth {
		headers, rows = monthGrid(v, marks)
	} else {
		headers, rows = dayColumns(v, marks)
	}

	t := table.New().
		Headers(headers...).
		Width(v.width).
		Border(lipgloss.RoundedBorder()).
		BorderRow(v.window.Mode == calendar.ViewMonth).
		BorderStyle(v.styles.Border).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return v.styles.Header
			}
			return v.styles.Text.Padding(0, 1)
		})

	var b strings.Builder
	b.WriteString(v.styles.Title.Render(v.window.Title()))
	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n")
	if len(marks) > 0 {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%s dancer overlap  %s room double-booked", markDancer, markRoom)))
		b.WriteString("\n")
	}
	return b.String()
}

// cellWidth is the text width available in each of n columns after borders
// and padding.
func cellWidth(total, n int) int {
	if n == 0 {
		return total
	}
	return max((total-(n+1))/n-2, 5)
}

func dayColumns(v calendarView, marks map[string]string) ([]string, [][]string) {
	days := v.window.Days
	w := cellWidth(v.width, len(days))

	headers := make([]string, len(days))
	row := make([]string, len(days))
	for i, d := range days {
		headers[i] = ansi.Truncate(d.Date.Format("Mon 1/2"), w, "")

		var lines []string
		for _, p := range d.Placements {
			lines = append(lines,
				ansi.Truncate(fmt.Sprintf("%s%s-%s %s", marks[p.ID], p.Start, p.End(), title(p)), w, "…"),
				v.styles.Muted.Render(ansi.Truncate("  "+v.catalog.RoomName(p.RoomID), w, "…")),
			)
		}
		if len(lines) == 0 {
			lines = []string{v.styles.Muted.Render("-")}
		}
		row[i] = strings.Join(lines, "\n")
	}
	return headers, [][]string{row}
}

func monthGrid(v calendarView, marks map[string]string) ([]string, [][]string) {
	w := cellWidth(v.width, 7)
	month := v.window.Anchor.Month()

	headers := make([]string, 7)
	for i := range headers {
		headers[i] = ansi.Truncate(time.Weekday(i).String()[:3], w, "")
	}

	var rows [][]string
	for start := 0; start < len(v.window.Days); start += 7 {
		row := make([]string, 7)
		for i := range 7 {
			if start+i >= len(v.window.Days) {
				break
			}
			d := v.window.Days[start+i]
			num := fmt.Sprintf("%d", d.Date.Day())
			if d.Date.Month() != month {
				num = v.styles.Muted.Render(num)
			}
			lines := []string{num}
			for j, p := range d.Placements {
				if j == monthCellLines {
					lines = append(lines, v.styles.Muted.Render(fmt.Sprintf("+%d more", len(d.Placements)-j)))
					break
				}
				lines = append(lines, ansi.Truncate(fmt.Sprintf("%s%s %s", marks[p.ID], p.Start, title(p)), w, "…"))
			}
			row[i] = strings.Join(lines, "\n")
		}
		rows = append(rows, row)
	}
	return headers, rows
}

// conflictMarks maps placement ids to the strongest collision they are part
// of.
func conflictMarks(findings []conflict.Finding) map[string]string {
	marks := make(map[string]string)
	for _, f := range findings {
		mark := markDancer
		if f.Kind == conflict.KindRoom {
			mark = markRoom
		}
		for _, id := range []string{f.First.ID, f.Second.ID} {
			if marks[id] != markRoom {
				marks[id] = mark
			}
		}
	}
	return marks
}

func title(p schedule.Placement) string {
	if p.Routine.Title != "" {
		return p.Routine.Title
	}
	return p.RoutineID
}
