package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/barre/internal/db"
	"github.com/javiermolinar/barre/internal/schedule"
)

func (a *App) roomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Manage studio rooms",
	}

	var capacity int
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			room, err := store.CreateRoom(cmd.Context(), schedule.Room{Name: args[0], Active: true, Capacity: capacity})
			if err != nil {
				return fmt.Errorf("creating room: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created room %s (%s)\n", room.Name, room.ID)
			return nil
		},
	}
	add.Flags().IntVar(&capacity, "capacity", 0, "How many dancers fit")

	list := &cobra.Command{
		Use:   "list",
		Short: "List rooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			rooms, err := store.ListRooms(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rooms) == 0 {
				_, _ = fmt.Fprintln(out, "No rooms yet. Add one with: barre room add <name>")
				return nil
			}
			for _, r := range rooms {
				status := formatOK("open")
				if !r.Active {
					status = formatMuted("closed")
				}
				_, _ = fmt.Fprintf(out, "  %-20s %-8s capacity %-4d %s\n", r.Name, status, r.Capacity, formatMuted(r.ID))
			}
			return nil
		},
	}

	cmd.AddCommand(add, list, a.roomActiveCmd("disable", false), a.roomActiveCmd("enable", true))
	return cmd
}

func (a *App) roomActiveCmd(use string, active bool) *cobra.Command {
	short := "Close a room to new placements"
	if active {
		short = "Reopen a room for new placements"
	}
	return &cobra.Command{
		Use:   use + " <room>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, catalog, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}
			room, ok := catalog.FindRoom(args[0])
			if !ok {
				return fmt.Errorf("%w: %q", schedule.ErrRoomNotFound, args[0])
			}
			if err := store.SetRoomActive(ctx, room.ID, active); err != nil {
				return fmt.Errorf("updating room: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Room %s %sd\n", room.Name, use)
			return nil
		},
	}
}

func (a *App) dancerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dancer",
		Short: "Manage dancers",
	}

	var (
		email   string
		phone   string
		classes []string
	)
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a dancer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			d, err := store.CreateDancer(cmd.Context(), schedule.Dancer{
				Name:    args[0],
				Email:   email,
				Phone:   phone,
				Classes: classes,
			})
			if err != nil {
				return fmt.Errorf("creating dancer: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created dancer %s (%s)\n", d.Name, d.ID)
			return nil
		},
	}
	add.Flags().StringVar(&email, "email", "", "Email address")
	add.Flags().StringVar(&phone, "phone", "", "Phone number")
	add.Flags().StringSliceVar(&classes, "class", nil, "Class the dancer attends (repeatable)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List dancers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			dancers, err := store.ListDancers(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(dancers) == 0 {
				_, _ = fmt.Fprintln(out, "No dancers yet. Add one with: barre dancer add <name>")
				return nil
			}
			for _, d := range dancers {
				_, _ = fmt.Fprintf(out, "  %-24s %-28s %s\n", d.Name, strings.Join(d.Classes, ", "), formatMuted(d.ID))
			}
			return nil
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func (a *App) routineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routine",
		Short: "Manage routines and their rosters",
	}

	var (
		duration int
		teacher  string
		genre    string
		level    string
		color    string
		dancers  []string
	)
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a routine",
		Long: `Add a routine with its roster. Teachers, genres and levels are
created on first use; dancers must already exist.

Example:
  barre routine add Rhapsody --duration 60 --teacher "Miss Lee" --genre Jazz --dancer Ana --dancer Bea`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			store, catalog, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}

			if duration == 0 {
				duration = a.config.Studio.DefaultDuration
			}
			r := schedule.Routine{Title: args[0], Duration: duration, Color: color}

			r.DancerIDs, err = resolveDancers(catalog, dancers)
			if err != nil {
				return err
			}
			r.TeacherID, err = findOrCreate(ctx, out, "teacher", teacher,
				func(n string) (string, bool) {
					t, ok := catalog.FindTeacher(n)
					return t.ID, ok
				},
				func(ctx context.Context, n string) (string, error) {
					t, err := store.CreateTeacher(ctx, n)
					return t.ID, err
				},
			)
			if err != nil {
				return err
			}
			r.GenreID, err = findOrCreate(ctx, out, "genre", genre,
				func(n string) (string, bool) {
					g, ok := catalog.FindGenre(n)
					return g.ID, ok
				},
				func(ctx context.Context, n string) (string, error) {
					g, err := store.CreateGenre(ctx, n)
					return g.ID, err
				},
			)
			if err != nil {
				return err
			}
			levelID, err := findOrCreate(ctx, out, "level", level,
				func(n string) (string, bool) {
					l, ok := catalog.FindLevel(n)
					return l.ID, ok
				},
				func(ctx context.Context, n string) (string, error) {
					l, err := store.CreateLevel(ctx, n)
					return l.ID, err
				},
			)
			if err != nil {
				return err
			}
			if levelID != "" {
				r.LevelID = &levelID
			}

			created, err := store.CreateRoutine(ctx, r)
			if err != nil {
				return fmt.Errorf("creating routine: %w", err)
			}
			_, _ = fmt.Fprintf(out, "Created routine %s (%s), %d min, %d dancer(s)\n",
				created.Title, created.ID, created.Duration, len(created.DancerIDs))
			return nil
		},
	}
	add.Flags().IntVar(&duration, "duration", 0, "Default length in minutes (default from config)")
	add.Flags().StringVar(&teacher, "teacher", "", "Teacher name")
	add.Flags().StringVar(&genre, "genre", "", "Genre name")
	add.Flags().StringVar(&level, "level", "", "Level name")
	add.Flags().StringVar(&color, "color", "", "Display color (#rrggbb)")
	add.Flags().StringSliceVar(&dancers, "dancer", nil, "Dancer id or name (repeatable)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List routines with their rosters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, catalog, err := a.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			routines := catalog.Routines()
			if len(routines) == 0 {
				_, _ = fmt.Fprintln(out, "No routines yet. Add one with: barre routine add <title>")
				return nil
			}
			for _, r := range routines {
				names := make([]string, len(r.DancerIDs))
				for i, id := range r.DancerIDs {
					names[i] = catalog.DancerName(id)
				}
				teacherName := ""
				if r.TeacherID != "" {
					teacherName = catalog.TeacherName(r.TeacherID)
				}
				_, _ = fmt.Fprintf(out, "%s %s\n", formatHeader(r.Title), formatMuted(r.ID))
				_, _ = fmt.Fprintf(out, "  %d min  %s\n", r.Duration, teacherName)
				_, _ = fmt.Fprintf(out, "  dancers: %s\n", strings.Join(names, ", "))
			}
			return nil
		},
	}

	roster := &cobra.Command{
		Use:   "roster <routine> <dancer>...",
		Short: "Replace a routine's roster",
		Long: `Replace the dancers of a routine. Existing placements pick up the new
roster the next time they are checked.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, catalog, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}
			r, ok := catalog.FindRoutine(args[0])
			if !ok {
				return fmt.Errorf("%w: %q", schedule.ErrRoutineNotFound, args[0])
			}
			ids, err := resolveDancers(catalog, args[1:])
			if err != nil {
				return err
			}
			if err := store.SetRoster(ctx, r.ID, ids); err != nil {
				return fmt.Errorf("updating roster: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Routine %s now has %d dancer(s)\n", r.Title, len(ids))
			return nil
		},
	}

	cmd.AddCommand(add, list, roster)
	return cmd
}

func (a *App) teacherCmd() *cobra.Command {
	return a.namedCmd("teacher", "Manage teachers",
		func(ctx context.Context, store *db.SQLite, name string) (string, error) {
			t, err := store.CreateTeacher(ctx, name)
			return t.ID, err
		},
		func(c *schedule.Catalog) [][2]string {
			var out [][2]string
			for _, t := range c.Teachers() {
				out = append(out, [2]string{t.Name, t.ID})
			}
			return out
		},
	)
}

func (a *App) genreCmd() *cobra.Command {
	return a.namedCmd("genre", "Manage genres",
		func(ctx context.Context, store *db.SQLite, name string) (string, error) {
			g, err := store.CreateGenre(ctx, name)
			return g.ID, err
		},
		func(c *schedule.Catalog) [][2]string {
			var out [][2]string
			for _, g := range c.Genres() {
				out = append(out, [2]string{g.Name, g.ID})
			}
			return out
		},
	)
}

func (a *App) levelCmd() *cobra.Command {
	return a.namedCmd("level", "Manage levels",
		func(ctx context.Context, store *db.SQLite, name string) (string, error) {
			l, err := store.CreateLevel(ctx, name)
			return l.ID, err
		},
		func(c *schedule.Catalog) [][2]string {
			var out [][2]string
			for _, l := range c.Levels() {
				out = append(out, [2]string{l.Name, l.ID})
			}
			return out
		},
	)
}

// namedCmd builds add and list subcommands for an entity that is only a name.
func (a *App) namedCmd(
	kind, short string,
	create func(context.Context, *db.SQLite, string) (string, error),
	list func(*schedule.Catalog) [][2]string,
) *cobra.Command {
	cmd := &cobra.Command{
		Use:   kind,
		Short: short,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a " + kind,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			id, err := create(cmd.Context(), store, args[0])
			if err != nil {
				return fmt.Errorf("creating %s: %w", kind, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", kind, args[0], id)
			return nil
		},
	}, &cobra.Command{
		Use:   "list",
		Short: "List " + kind + "s",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, catalog, err := a.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			for _, row := range list(catalog) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %-24s %s\n", row[0], formatMuted(row[1]))
			}
			return nil
		},
	})
	return cmd
}

func (a *App) openCatalog(ctx context.Context) (*db.SQLite, *schedule.Catalog, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}
	catalog, err := store.Catalog(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading catalog: %w", err)
	}
	return store, catalog, nil
}

func resolveDancers(catalog *schedule.Catalog, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		d, ok := catalog.FindDancer(ref)
		if !ok {
			return nil, fmt.Errorf("%w: %q", schedule.ErrDancerNotFound, ref)
		}
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// findOrCreate returns the id of the entity called name, creating it when
// missing. An empty name yields an empty id.
func findOrCreate(
	ctx context.Context, out io.Writer, kind, name string,
	find func(string) (string, bool),
	create func(context.Context, string) (string, error),
) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	if id, ok := find(name); ok {
		return id, nil
	}
	id, err := create(ctx, name)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", kind, err)
	}
	_, _ = fmt.Fprintf(out, "Created %s %s\n", kind, name)
	return id, nil
}
