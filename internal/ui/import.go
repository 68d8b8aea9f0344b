package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/barre/internal/db"
	"github.com/javiermolinar/barre/internal/planner"
	"github.com/javiermolinar/barre/internal/schedule"
)

func (a *App) importCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "import [database_path]",
		Short: "Import a calendar from another database",
		Long: `Import rooms, dancers, routines and placements from another Barre
database into the current one.

Directory entries are matched by name and created when missing. Every
placement goes through the same checks as "barre place": slots already
taken are rejected, exact duplicates are skipped, and placements that
double-book a dancer are skipped unless --yes is given.

Example:
  barre import /path/to/other.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			sourcePath, err := resolvePath(args[0])
			if err != nil {
				return err
			}
			destPath, err := resolvePath(a.config.Storage.DBPath)
			if err != nil {
				return err
			}

			if sourcePath == destPath {
				return fmt.Errorf("source database matches current database")
			}

			info, err := os.Stat(sourcePath)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("source database does not exist: %s", sourcePath)
				}
				return fmt.Errorf("checking source database: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("source database path is a directory: %s", sourcePath)
			}

			dest, err := a.openStore()
			if err != nil {
				return err
			}
			source, err := db.New(sourcePath)
			if err != nil {
				return fmt.Errorf("opening source database: %w", err)
			}
			defer func() { _ = source.Close() }()

			report, err := a.importStudio(cmd.Context(), dest, source, yes)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(out, "Imported from %s: %d room(s), %d dancer(s), %d routine(s), %d placement(s)\n",
				sourcePath, report.rooms, report.dancers, report.routines, report.placements)
			if report.duplicates > 0 {
				_, _ = fmt.Fprintln(out, formatMuted(fmt.Sprintf("%d placement(s) were already present", report.duplicates)))
			}
			if report.skipped > 0 {
				_, _ = fmt.Fprintln(out, formatWarn(fmt.Sprintf("%d placement(s) skipped for dancer conflicts", report.skipped)))
			}
			if report.rejected > 0 {
				return fmt.Errorf("%d placement(s) rejected", report.rejected)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Import placements despite dancer conflicts")

	return cmd
}

type importReport struct {
	rooms      int
	dancers    int
	routines   int
	placements int
	duplicates int
	skipped    int
	rejected   int
}

// importStudio copies source into dest. Directory ids are remapped by name;
// placements are proposed through a session against dest's calendar.
func (a *App) importStudio(ctx context.Context, dest, source *db.SQLite, yes bool) (importReport, error) {
	var report importReport

	src, err := source.Catalog(ctx)
	if err != nil {
		return report, fmt.Errorf("loading source catalog: %w", err)
	}
	dst, err := dest.Catalog(ctx)
	if err != nil {
		return report, fmt.Errorf("loading catalog: %w", err)
	}

	roomIDs := make(map[string]string)
	for _, r := range src.Rooms() {
		if existing, ok := dst.FindRoom(r.Name); ok {
			roomIDs[r.ID] = existing.ID
			continue
		}
		created, err := dest.CreateRoom(ctx, schedule.Room{Name: r.Name, Active: r.Active, Capacity: r.Capacity})
		if err != nil {
			return report, fmt.Errorf("importing room %q: %w", r.Name, err)
		}
		dst.AddRoom(created)
		roomIDs[r.ID] = created.ID
		report.rooms++
	}

	dancerIDs := make(map[string]string)
	for _, d := range src.Dancers() {
		if existing, ok := dst.FindDancer(d.Name); ok {
			dancerIDs[d.ID] = existing.ID
			continue
		}
		srcID := d.ID
		d.ID = ""
		created, err := dest.CreateDancer(ctx, d)
		if err != nil {
			return report, fmt.Errorf("importing dancer %q: %w", d.Name, err)
		}
		dst.AddDancer(created)
		dancerIDs[srcID] = created.ID
		report.dancers++
	}

	routineIDs := make(map[string]string)
	for _, r := range src.Routines() {
		if existing, ok := dst.FindRoutine(r.Title); ok {
			routineIDs[r.ID] = existing.ID
			continue
		}
		created, err := importRoutine(ctx, dest, src, dst, r, dancerIDs)
		if err != nil {
			return report, fmt.Errorf("importing routine %q: %w", r.Title, err)
		}
		dst.AddRoutine(created)
		routineIDs[r.ID] = created.ID
		report.routines++
	}

	placements, err := source.ListPlacements(ctx, nil)
	if err != nil {
		return report, fmt.Errorf("listing source placements: %w", err)
	}
	session, err := planner.Load(ctx, dest, dst, nil, planner.WithLogger(a.logger), planner.WithMetrics(a.metrics))
	if err != nil {
		return report, err
	}

	for _, p := range placements {
		routine, ok := dst.Routine(routineIDs[p.RoutineID])
		if !ok {
			return report, fmt.Errorf("%w: %s", schedule.ErrRoutineNotFound, p.RoutineID)
		}
		outcome, err := session.ProposePlacement(routine, planner.Target{
			RoomID:   roomIDs[p.RoomID],
			Date:     p.Date,
			Start:    p.Start,
			Duration: p.Duration,
		})
		switch {
		case errors.Is(err, planner.ErrDuplicatePlacement):
			report.duplicates++
			continue
		case errors.Is(err, planner.ErrRoomConflict), errors.Is(err, planner.ErrRoomUnavailable):
			a.logger.Info("import rejected placement", "placement", p.String(), "kind", planner.ErrorKind(err))
			report.rejected++
			continue
		case err != nil:
			return report, fmt.Errorf("importing placement %s: %w", p, err)
		}

		if outcome.Status == planner.StatusPending {
			if !yes {
				if err := session.Cancel(); err != nil {
					return report, err
				}
				report.skipped++
				continue
			}
			if _, err := session.Confirm(); err != nil {
				return report, err
			}
		}
		report.placements++
	}

	saved, err := session.Save(ctx, dest)
	if err != nil {
		var saveErr *planner.SaveError
		if errors.As(err, &saveErr) {
			report.rejected += len(saveErr.Failures)
			report.placements = len(saved.Created)
			return report, nil
		}
		return report, fmt.Errorf("saving placements: %w", err)
	}
	return report, nil
}

// importRoutine creates r in dest with its teacher, genre, level and roster
// mapped onto dest's directory.
func importRoutine(ctx context.Context, dest *db.SQLite, src, dst *schedule.Catalog, r schedule.Routine, dancerIDs map[string]string) (schedule.Routine, error) {
	var err error
	routine := schedule.Routine{Title: r.Title, Duration: r.Duration, Color: r.Color}

	for _, id := range r.DancerIDs {
		if mapped, ok := dancerIDs[id]; ok {
			routine.DancerIDs = append(routine.DancerIDs, mapped)
		}
	}

	if t, ok := src.FindTeacher(r.TeacherID); ok {
		routine.TeacherID, err = ensureNamed(ctx, t.Name,
			func(n string) (string, bool) {
				v, ok := dst.FindTeacher(n)
				return v.ID, ok
			},
			func(ctx context.Context, n string) (string, error) {
				v, err := dest.CreateTeacher(ctx, n)
				if err == nil {
					dst.AddTeacher(v)
				}
				return v.ID, err
			})
		if err != nil {
			return schedule.Routine{}, err
		}
	}
	if g, ok := src.FindGenre(r.GenreID); ok {
		routine.GenreID, err = ensureNamed(ctx, g.Name,
			func(n string) (string, bool) {
				v, ok := dst.FindGenre(n)
				return v.ID, ok
			},
			func(ctx context.Context, n string) (string, error) {
				v, err := dest.CreateGenre(ctx, n)
				if err == nil {
					dst.AddGenre(v)
				}
				return v.ID, err
			})
		if err != nil {
			return schedule.Routine{}, err
		}
	}
	if r.LevelID != nil {
		if l, ok := src.FindLevel(*r.LevelID); ok {
			levelID, err := ensureNamed(ctx, l.Name,
				func(n string) (string, bool) {
					v, ok := dst.FindLevel(n)
					return v.ID, ok
				},
				func(ctx context.Context, n string) (string, error) {
					v, err := dest.CreateLevel(ctx, n)
					if err == nil {
						dst.AddLevel(v)
					}
					return v.ID, err
				})
			if err != nil {
				return schedule.Routine{}, err
			}
			routine.LevelID = &levelID
		}
	}

	return dest.CreateRoutine(ctx, routine)
}

// ensureNamed returns the id of name, creating it when find misses.
func ensureNamed(
	ctx context.Context, name string,
	find func(string) (string, bool),
	create func(context.Context, string) (string, error),
) (string, error) {
	if id, ok := find(name); ok {
		return id, nil
	}
	return create(ctx, name)
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	return absPath, nil
}
