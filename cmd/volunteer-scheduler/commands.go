package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/example/volunteer-scheduler/internal/application"
	"github.com/example/volunteer-scheduler/internal/calendar"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending schema migrations to the configured store.",
		Action: func(c *cli.Context) error {
			rt, err := loadRuntime(c)
			if err != nil {
				return err
			}
			b, err := openStore(c.Context, rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer closeStore(c.Context, b, rt.logger)

			fmt.Fprintf(c.App.Writer, "applied %d migration(s) to %s store\n", b.Applied, rt.cfg.Store)
			return nil
		},
	}
}

func sessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Manage scheduled sessions.",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Schedule a session on a date.",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date", Usage: "calendar date, YYYY-MM-DD", Required: true},
					&cli.StringFlag{Name: "type", Usage: "session type, one of " + sessionTypeList(), Required: true},
					&cli.StringFlag{Name: "description", Usage: "optional free text"},
				},
				Action: func(c *cli.Context) error {
					rt, err := loadRuntime(c)
					if err != nil {
						return err
					}
					b, err := openStore(c.Context, rt.cfg, rt.logger)
					if err != nil {
						return err
					}
					defer closeStore(c.Context, b, rt.logger)

					session, err := application.NewCatalogWithLogger(b.Store, rt.logger).AddSession(c.Context, application.SessionInput{
						Date:        c.String("date"),
						Type:        application.SessionType(c.String("type")),
						Description: c.String("description"),
					})
					if err != nil {
						return describeValidation(err)
					}
					fmt.Fprintf(c.App.Writer, "scheduled %s %s (%s)\n", session.Date, session.Type, session.ID)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List scheduled sessions in insertion order.",
				Action: func(c *cli.Context) error {
					rt, err := loadRuntime(c)
					if err != nil {
						return err
					}
					b, err := openStore(c.Context, rt.cfg, rt.logger)
					if err != nil {
						return err
					}
					defer closeStore(c.Context, b, rt.logger)

					sessions, err := application.NewCatalogWithLogger(b.Store, rt.logger).ListSessions(c.Context)
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tDATE\tTYPE\tDESCRIPTION")
					for _, s := range sessions {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Date, s.Type, s.Description)
					}
					return tw.Flush()
				},
			},
		},
	}
}

func calendarCommand() *cli.Command {
	return &cli.Command{
		Name:  "calendar",
		Usage: "Calendar utilities.",
		Subcommands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Write the session calendar as iCalendar.",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "output file, stdout when empty"},
				},
				Action: func(c *cli.Context) error {
					rt, err := loadRuntime(c)
					if err != nil {
						return err
					}
					b, err := openStore(c.Context, rt.cfg, rt.logger)
					if err != nil {
						return err
					}
					defer closeStore(c.Context, b, rt.logger)

					index, err := application.NewDirectoryWithLogger(b.Store, rt.logger).LoadAll(c.Context)
					if err != nil {
						return err
					}

					out := c.App.Writer
					if path := c.String("out"); path != "" {
						f, err := os.Create(path)
						if err != nil {
							return fmt.Errorf("create %s: %w", path, err)
						}
						defer f.Close()
						out = f
					}
					return calendar.Encode(out, index, time.Now(), rt.logger)
				},
			},
		},
	}
}

func sessionTypeList() string {
	names := make([]string, 0, len(application.SessionTypes))
	for _, t := range application.SessionTypes {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

// describeValidation flattens field errors into one line for the terminal.
func describeValidation(err error) error {
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) || !vErr.HasErrors() {
		return err
	}
	parts := make([]string, 0, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		parts = append(parts, field+": "+msg)
	}
	slices.Sort(parts)
	return fmt.Errorf("invalid session: %s", strings.Join(parts, "; "))
}
