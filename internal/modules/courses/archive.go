// Package courses rolls course channels over at the start of an academic year.
package courses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/campus-bot/internal/repository"
	"github.com/glizzus/campus-bot/internal/schedule"
)

// ArchiveBand runs archival before announcements of the same event.
const ArchiveBand = 0

type ChannelEditor interface {
	ChannelEdit(channelID string, data *discordgo.ChannelEdit, opts ...discordgo.RequestOption) (*discordgo.Channel, error)
}

var _ ChannelEditor = (*discordgo.Session)(nil)

type Archiver struct {
	repo              repository.CourseRepository
	channels          ChannelEditor
	archiveCategoryID string
}

// NewArchiver returns an Archiver that moves course channels under
// archiveCategoryID. With an empty category the channels are left in place and
// only their rows are archived.
func NewArchiver(repo repository.CourseRepository, channels ChannelEditor, archiveCategoryID string) *Archiver {
	return &Archiver{
		repo:              repo,
		channels:          channels,
		archiveCategoryID: archiveCategoryID,
	}
}

func (a *Archiver) Register(s *schedule.Scheduler) error {
	return s.Register(schedule.NewAcademicYear, ArchiveBand, "courses.archive", a.ArchiveAll)
}

// ArchiveAll archives every active course channel of every guild. Channels that
// could not be moved stay active and are reported in the returned error.
func (a *Archiver) ArchiveAll(ctx context.Context) error {
	courses, err := a.repo.ListActive(ctx)
	if err != nil {
		return err
	}

	var errs []error
	archived := make([]string, 0, len(courses))
	for _, c := range courses {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := a.moveToArchive(ctx, c); err != nil {
			errs = append(errs, fmt.Errorf("failed to archive channel %s of course %s: %w", c.ChannelID, c.Name, err))
			continue
		}
		archived = append(archived, c.ID)
	}

	n, err := a.repo.Archive(ctx, archived...)
	if err != nil {
		errs = append(errs, err)
	}
	slog.Info("Archived course channels", "archived", n, "failed", len(courses)-len(archived))
	return errors.Join(errs...)
}

func (a *Archiver) moveToArchive(ctx context.Context, c repository.CourseChannel) error {
	if a.archiveCategoryID == "" {
		return nil
	}
	_, err := a.channels.ChannelEdit(c.ChannelID, &discordgo.ChannelEdit{
		ParentID: a.archiveCategoryID,
	}, discordgo.WithContext(ctx))
	if isNotFound(err) {
		slog.Warn("Course channel no longer exists", "course", c.Name, "channelID", c.ChannelID)
		return nil
	}
	return err
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
