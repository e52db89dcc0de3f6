package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glizzus/campus-bot/internal/config"
	"github.com/glizzus/campus-bot/internal/datalayer"
	"github.com/glizzus/campus-bot/internal/handler"
	"github.com/glizzus/campus-bot/internal/ledger"
	"github.com/glizzus/campus-bot/internal/logging"
	"github.com/glizzus/campus-bot/internal/modules/announce"
	"github.com/glizzus/campus-bot/internal/modules/courses"
	"github.com/glizzus/campus-bot/internal/repository"
	"github.com/glizzus/campus-bot/internal/schedule"
)

// registrar is implemented by every module that reacts to scheduled events.
type registrar interface {
	Register(s *schedule.Scheduler) error
}

func runBotForever() error {
	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("No .env file found, continuing without it")
		} else {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	logConfig, err := config.NewLoggingConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load logging config: %w", err)
	}
	slog.SetDefault(logging.New(os.Stderr, logConfig))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgresConfig, err := config.NewPostgresConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load postgres config: %w", err)
	}
	pool, err := datalayer.NewPostgresPool(ctx, postgresConfig)
	if err != nil {
		return fmt.Errorf("failed to create postgres pool: %w", err)
	}
	defer pool.Close()

	if err := datalayer.MigratePostgres(pool); err != nil {
		return fmt.Errorf("failed to migrate postgres: %w", err)
	}

	discordConfig, err := config.NewDiscordConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load discord config: %w", err)
	}
	channelsConfig, err := config.NewChannelsConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load channels config: %w", err)
	}
	schedulerConfig, err := config.NewSchedulerConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load scheduler config: %w", err)
	}
	redisConfig, err := config.NewRedisConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load redis config: %w", err)
	}

	var firingLedger schedule.Ledger = ledger.NewMemoryLedger()
	if redisConfig.Enabled() {
		rdb, err := datalayer.NewRedisClient(ctx, redisConfig)
		if err != nil {
			return err
		}
		defer rdb.Close()
		firingLedger = ledger.NewRedisLedger(rdb, schedulerConfig.LedgerTTL)
	} else {
		slog.Warn("REDIS_ADDR is not set, events are deduplicated only within this process")
	}

	calendar, err := schedule.CalendarByName(schedulerConfig.Calendar)
	if err != nil {
		return err
	}
	scheduler, err := schedule.New(schedule.Config{
		Calendar:        calendar,
		Location:        schedulerConfig.Location(),
		CallbackTimeout: schedulerConfig.CallbackTimeout,
		Ledger:          firingLedger,
		Logger:          slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	session, err := handler.NewSession(discordConfig.Token, handler.Handlers{
		Ready: handler.ReadyLog,
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	repo := repository.NewPostgresCourseRepository(pool)

	modules := []registrar{
		courses.NewArchiver(repo, session, channelsConfig.ArchiveCategoryID),
		announce.NewAnnouncer(session, channelsConfig.AnnounceChannelID),
	}
	for _, m := range modules {
		if err := m.Register(scheduler); err != nil {
			return fmt.Errorf("failed to register scheduled callbacks: %w", err)
		}
	}

	interactionHandler := handler.NewInteractionHandler(handler.Deps{
		Courses:  repo,
		Channels: session,
		Schedule: scheduler,
		AcademicYear: func() (int, error) {
			return scheduler.YearOfNext(schedule.NewAcademicYear, time.Now())
		},
		CourseCategoryID: channelsConfig.CourseCategoryID,
	})
	session.AddHandler(handler.Adapt(interactionHandler))

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("failed to close session", "error", err)
		}
	}()

	if err := handler.EstablishCommands(session, discordConfig.CommandGuildID()); err != nil {
		return fmt.Errorf("failed to establish commands: %w", err)
	}

	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer scheduler.Stop()

	<-ctx.Done()
	slog.Info("Shutting down")
	return nil
}

func main() {
	if err := runBotForever(); err != nil {
		log.Fatalf("failed to run bot: %v", err)
	}
}
