package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/glizzus/campus-bot/internal/config"
	"github.com/glizzus/campus-bot/internal/datalayer"
	"github.com/glizzus/campus-bot/internal/handler"
	"github.com/glizzus/campus-bot/internal/logging"
	"github.com/glizzus/campus-bot/internal/modules/announce"
	"github.com/glizzus/campus-bot/internal/modules/courses"
	"github.com/glizzus/campus-bot/internal/repository"
	"github.com/glizzus/campus-bot/internal/schedule"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"
)

// fixedClock pins the scheduler to a single instant.
type fixedClock time.Time

func (c fixedClock) Now() time.Time                         { return time.Time(c) }
func (c fixedClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func newScheduler(clock schedule.Clock) (*schedule.Scheduler, *config.SchedulerConfig, error) {
	cfg, err := config.NewSchedulerConfigFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load scheduler config: %w", err)
	}
	calendar, err := schedule.CalendarByName(cfg.Calendar)
	if err != nil {
		return nil, nil, err
	}
	s, err := schedule.New(schedule.Config{
		Calendar:        calendar,
		Location:        cfg.Location(),
		CallbackTimeout: cfg.CallbackTimeout,
		Clock:           clock,
	})
	if err != nil {
		return nil, nil, err
	}
	return s, cfg, nil
}

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	pgConfig, err := config.NewPostgresConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load postgres config: %w", err)
	}
	pool, err := datalayer.NewPostgresPool(ctx, pgConfig)
	if err != nil {
		return nil, err
	}
	if err := datalayer.MigratePostgres(pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate postgres: %w", err)
	}
	return pool, nil
}

func eventsAction(c *cli.Context) error {
	var clock schedule.Clock
	if at := c.String("at"); at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return cli.Exit("Invalid --at, expected RFC3339: "+err.Error(), 1)
		}
		clock = fixedClock(t)
	}

	s, cfg, err := newScheduler(clock)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	entries, err := s.Upcoming()
	if err != nil {
		return cli.Exit("Failed to compute upcoming events: "+err.Error(), 1)
	}
	for _, e := range entries {
		year, _ := s.YearOfNext(e.Event, e.At)
		fmt.Printf("%-20s %s (%s year %d)\n", e.Event, e.At.In(cfg.Location()).Format(time.RFC1123), cfg.Calendar, year)
	}
	return nil
}

func fireAction(c *cli.Context) error {
	ev := schedule.Event(c.String("event"))
	s, _, err := newScheduler(nil)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if c.Bool("dry-run") {
		for _, known := range s.Events() {
			name := "dry-run." + string(known)
			err := s.Register(known, 0, name, func(ctx context.Context) error {
				slog.Info("Would dispatch event", "event", known)
				return nil
			})
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
		}
	} else {
		pool, err := openPool(c.Context)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		defer pool.Close()

		discordConfig, err := config.NewDiscordConfigFromEnv()
		if err != nil {
			return cli.Exit("Failed to load discord config: "+err.Error(), 1)
		}
		channelsConfig, err := config.NewChannelsConfigFromEnv()
		if err != nil {
			return cli.Exit("Failed to load channels config: "+err.Error(), 1)
		}
		session, err := handler.NewSession(discordConfig.Token, handler.Handlers{})
		if err != nil {
			return cli.Exit("Failed to create session: "+err.Error(), 1)
		}
		repo := repository.NewPostgresCourseRepository(pool)

		if err := courses.NewArchiver(repo, session, channelsConfig.ArchiveCategoryID).Register(s); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		if err := announce.NewAnnouncer(session, channelsConfig.AnnounceChannelID).Register(s); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}

	if err := s.Dispatch(c.Context, ev); err != nil {
		return cli.Exit("Dispatch finished with failures: "+err.Error(), 1)
	}
	log.Printf("Dispatched %s", ev)
	return nil
}

func listCoursesAction(c *cli.Context) error {
	pool, err := openPool(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer pool.Close()
	repo := repository.NewPostgresCourseRepository(pool)

	list, err := repo.List(c.Context, c.String("guild-id"))
	if err != nil {
		return cli.Exit("Failed to retrieve course channels: "+err.Error(), 1)
	}
	if len(list) == 0 {
		log.Println("No course channels found for the specified guild.")
		return nil
	}
	for _, course := range list {
		log.Printf("%+v", course)
	}
	return nil
}

func main() {
	if err := config.LoadEnv(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to load .env file: %v", err)
	}
	if logConfig, err := config.NewLoggingConfigFromEnv(); err == nil {
		slog.SetDefault(logging.New(os.Stderr, logConfig))
	}

	app := &cli.App{
		Name:        "campus-bot-cli",
		Description: "A development CLI tool for inspecting and firing Campus Bot events without the gateway",
		Commands: []*cli.Command{
			{
				Name:   "events",
				Usage:  "Show the next occurrence of every calendar event",
				Action: eventsAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "at",
						Usage: "compute occurrences as if it were this RFC3339 instant",
					},
				},
			},
			{
				Name:   "fire",
				Usage:  "Dispatch an event immediately",
				Action: fireAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "event",
						Usage:    "name of the event to dispatch, e.g. new_academic_year",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "log instead of touching Discord or the database",
					},
				},
			},
			{
				Name:  "courses",
				Usage: "Inspect course channels",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List the active course channels of a guild",
						Action: listCoursesAction,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "guild-id",
								Usage:    "ID of the guild to list course channels for",
								Required: true,
							},
						},
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Error running CLI: %v", err)
	}
}
