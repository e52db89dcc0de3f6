package repository_test

import (
	"errors"
	"testing"

	"github.com/glizzus/campus-bot/internal/datalayer"
	"github.com/glizzus/campus-bot/internal/repository"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func newTestRepository(t *testing.T) *repository.PostgresCourseRepository {
	t.Helper()
	ctx := t.Context()
	postgresContainer, err := postgres.Run(
		ctx,
		"postgres",
		postgres.WithDatabase("campusbot"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := postgresContainer.Terminate(t.Context()); err != nil {
			t.Errorf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := postgresContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create postgres pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := datalayer.MigratePostgres(pool); err != nil {
		t.Fatalf("failed to migrate postgres: %v", err)
	}

	return repository.NewPostgresCourseRepository(pool)
}

var ignoreCreatedAt = cmpopts.IgnoreFields(repository.CourseChannel{}, "CreatedAt")

func TestCourseRepository(t *testing.T) {
	repo := newTestRepository(t)
	ctx := t.Context()

	const guildID = "74241007174813750"
	calculus := repository.CourseChannel{
		ID:           "0190a6f2-2b1c-7d4e-8f00-000000000001",
		GuildID:      guildID,
		Name:         "calculus-1",
		ChannelID:    "1100000000000000001",
		AcademicYear: 5786,
	}
	algebra := repository.CourseChannel{
		ID:           "0190a6f2-2b1c-7d4e-8f00-000000000002",
		GuildID:      guildID,
		Name:         "algebra-1",
		ChannelID:    "1100000000000000002",
		AcademicYear: 5786,
	}
	elsewhere := repository.CourseChannel{
		ID:           "0190a6f2-2b1c-7d4e-8f00-000000000003",
		GuildID:      "99999999999999999",
		Name:         "calculus-1",
		ChannelID:    "1100000000000000003",
		AcademicYear: 5786,
	}

	for _, c := range []repository.CourseChannel{calculus, algebra, elsewhere} {
		if err := repo.Save(ctx, c); err != nil {
			t.Fatalf("failed to save %s: %v", c.Name, err)
		}
	}

	t.Run("List returns the guild's courses by name", func(t *testing.T) {
		got, err := repo.List(ctx, guildID)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		want := []repository.CourseChannel{algebra, calculus}
		if diff := cmp.Diff(want, got, ignoreCreatedAt); diff != "" {
			t.Errorf("list mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Saving an active duplicate fails", func(t *testing.T) {
		dup := calculus
		dup.ID = "0190a6f2-2b1c-7d4e-8f00-000000000004"
		if err := repo.Save(ctx, dup); !errors.Is(err, repository.ErrCourseExists) {
			t.Fatalf("expected ErrCourseExists, got %v", err)
		}
	})

	t.Run("ByName finds a course", func(t *testing.T) {
		got, err := repo.ByName(ctx, guildID, "calculus-1")
		if err != nil {
			t.Fatalf("failed to find course: %v", err)
		}
		if diff := cmp.Diff(calculus, got, ignoreCreatedAt); diff != "" {
			t.Errorf("course mismatch (-want +got):\n%s", diff)
		}
		if _, err := repo.ByName(ctx, guildID, "missing"); !errors.Is(err, repository.ErrCourseNotFound) {
			t.Errorf("expected ErrCourseNotFound, got %v", err)
		}
	})

	t.Run("Archive hides courses and frees their names", func(t *testing.T) {
		n, err := repo.Archive(ctx, calculus.ID, elsewhere.ID)
		if err != nil {
			t.Fatalf("failed to archive: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 archived rows, got %d", n)
		}

		active, err := repo.ListActive(ctx)
		if err != nil {
			t.Fatalf("failed to list active: %v", err)
		}
		if diff := cmp.Diff([]repository.CourseChannel{algebra}, active, ignoreCreatedAt); diff != "" {
			t.Errorf("active mismatch (-want +got):\n%s", diff)
		}

		reused := calculus
		reused.ID = "0190a6f2-2b1c-7d4e-8f00-000000000005"
		reused.AcademicYear = 5787
		if err := repo.Save(ctx, reused); err != nil {
			t.Errorf("expected an archived name to be reusable, got %v", err)
		}
	})

	t.Run("Delete removes a course", func(t *testing.T) {
		if err := repo.Delete(ctx, guildID, "algebra-1"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if err := repo.Delete(ctx, guildID, "algebra-1"); !errors.Is(err, repository.ErrCourseNotFound) {
			t.Errorf("expected ErrCourseNotFound on second delete, got %v", err)
		}
	})
}
