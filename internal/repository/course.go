package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrCourseNotFound = errors.New("course channel not found")
	ErrCourseExists   = errors.New("course channel already exists")
)

// CourseChannel is a Discord text channel dedicated to one course in one guild.
type CourseChannel struct {
	ID           string
	GuildID      string
	Name         string
	ChannelID    string
	AcademicYear int
	Archived     bool
	CreatedAt    time.Time
}

type CourseRepository interface {
	Save(ctx context.Context, course CourseChannel) error
	List(ctx context.Context, guildID string) ([]CourseChannel, error)
	ByName(ctx context.Context, guildID, name string) (CourseChannel, error)
	Delete(ctx context.Context, guildID, name string) error
	ListActive(ctx context.Context) ([]CourseChannel, error)
	Archive(ctx context.Context, ids ...string) (int64, error)
}

type PostgresCourseRepository struct {
	db *pgxpool.Pool
}

func NewPostgresCourseRepository(db *pgxpool.Pool) *PostgresCourseRepository {
	return &PostgresCourseRepository{db: db}
}

func CourseToRowParams(course CourseChannel) []any {
	return []any{
		course.ID,
		course.GuildID,
		course.Name,
		course.ChannelID,
		course.AcademicYear,
	}
}

const courseColumns = `id, guild_id, course_name, channel_id, academic_year, archived, created_at`

func scanCourse(row pgx.CollectableRow) (CourseChannel, error) {
	var c CourseChannel
	err := row.Scan(&c.ID, &c.GuildID, &c.Name, &c.ChannelID, &c.AcademicYear, &c.Archived, &c.CreatedAt)
	return c, err
}

func (r *PostgresCourseRepository) Save(ctx context.Context, course CourseChannel) error {
	const query = `
	INSERT INTO course_channel (id, guild_id, course_name, channel_id, academic_year)
	VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query, CourseToRowParams(course)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrCourseExists
		}
		return fmt.Errorf("failed to insert course channel: %w", err)
	}
	return nil
}

func (r *PostgresCourseRepository) List(ctx context.Context, guildID string) ([]CourseChannel, error) {
	query := `SELECT ` + courseColumns + `
	FROM course_channel
	WHERE guild_id = $1 AND NOT archived
	ORDER BY course_name`

	rows, err := r.db.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to query course channels: %w", err)
	}
	courses, err := pgx.CollectRows(rows, scanCourse)
	if err != nil {
		return nil, fmt.Errorf("failed to scan course channels: %w", err)
	}
	return courses, nil
}

func (r *PostgresCourseRepository) ByName(ctx context.Context, guildID, name string) (CourseChannel, error) {
	query := `SELECT ` + courseColumns + `
	FROM course_channel
	WHERE guild_id = $1 AND course_name = $2 AND NOT archived`

	rows, err := r.db.Query(ctx, query, guildID, name)
	if err != nil {
		return CourseChannel{}, fmt.Errorf("failed to query course channel: %w", err)
	}
	course, err := pgx.CollectExactlyOneRow(rows, scanCourse)
	if errors.Is(err, pgx.ErrNoRows) {
		return CourseChannel{}, ErrCourseNotFound
	}
	if err != nil {
		return CourseChannel{}, fmt.Errorf("failed to scan course channel: %w", err)
	}
	return course, nil
}

func (r *PostgresCourseRepository) Delete(ctx context.Context, guildID, name string) error {
	const query = `DELETE FROM course_channel WHERE guild_id = $1 AND course_name = $2 AND NOT archived`

	tag, err := r.db.Exec(ctx, query, guildID, name)
	if err != nil {
		return fmt.Errorf("failed to delete course channel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}
	return nil
}

// ListActive returns the unarchived course channels of every guild.
func (r *PostgresCourseRepository) ListActive(ctx context.Context) ([]CourseChannel, error) {
	query := `SELECT ` + courseColumns + `
	FROM course_channel
	WHERE NOT archived
	ORDER BY guild_id, course_name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active course channels: %w", err)
	}
	courses, err := pgx.CollectRows(rows, scanCourse)
	if err != nil {
		return nil, fmt.Errorf("failed to scan course channels: %w", err)
	}
	return courses, nil
}

// Archive marks the given course channels as archived and returns how many rows changed.
func (r *PostgresCourseRepository) Archive(ctx context.Context, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const query = `UPDATE course_channel SET archived = TRUE WHERE id = ANY($1::uuid[]) AND NOT archived`

	tag, err := r.db.Exec(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to archive course channels: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ CourseRepository = (*PostgresCourseRepository)(nil)
