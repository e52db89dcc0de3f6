package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/campus-bot/internal/repository"
	"github.com/glizzus/campus-bot/internal/util"
)

const MaxCourseNameLength = 100

var courseNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

type CourseRequest struct {
	Name string
}

// NormalizeCourseName turns user input into a Discord channel name:
// lowercase, with runs of whitespace replaced by a single dash.
func NormalizeCourseName(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), "-")
}

func CommandToCourseRequest(options []*discordgo.ApplicationCommandInteractionDataOption) (*CourseRequest, error) {
	var name string
	option, ok := util.FindFirst(options, func(o *discordgo.ApplicationCommandInteractionDataOption) bool {
		return o.Name == "name"
	})
	if ok {
		if option.Type != discordgo.ApplicationCommandOptionString {
			return nil, fmt.Errorf("invalid type for name option")
		}
		name = NormalizeCourseName(option.StringValue())
	}

	if name == "" {
		return nil, &UserError{Message: "A course name is required."}
	}
	if len(name) > MaxCourseNameLength {
		return nil, &UserError{Message: fmt.Sprintf("Course names are limited to %d characters.", MaxCourseNameLength)}
	}
	if !courseNamePattern.MatchString(name) {
		return nil, &UserError{Message: "Course names may only contain letters, digits and dashes."}
	}
	return &CourseRequest{Name: name}, nil
}

func (h *interactionHandler) addCourse(ctx context.Context, guildID string, req *CourseRequest) (*repository.CourseChannel, error) {
	if _, err := h.courses.ByName(ctx, guildID, req.Name); err == nil {
		return nil, &CourseAlreadyExistsError{GuildID: guildID, Name: req.Name}
	} else if !errors.Is(err, repository.ErrCourseNotFound) {
		return nil, fmt.Errorf("failed to look up course: %w", err)
	}

	year, err := h.academicYear()
	if err != nil {
		return nil, fmt.Errorf("failed to determine academic year: %w", err)
	}

	id, err := h.ids.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to generate id: %w", err)
	}

	channel, err := h.channels.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     req.Name,
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: h.courseCategoryID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	course := repository.CourseChannel{
		ID:           id,
		GuildID:      guildID,
		Name:         req.Name,
		ChannelID:    channel.ID,
		AcademicYear: year,
	}
	if err := h.courses.Save(ctx, course); err != nil {
		if _, derr := h.channels.ChannelDelete(channel.ID); derr != nil {
			slog.Error("failed to clean up channel after failed save", "channelID", channel.ID, "error", derr)
		}
		if errors.Is(err, repository.ErrCourseExists) {
			return nil, &CourseAlreadyExistsError{GuildID: guildID, Name: req.Name}
		}
		return nil, fmt.Errorf("failed to save course: %w", err)
	}
	return &course, nil
}

func (h *interactionHandler) removeCourse(ctx context.Context, guildID string, req *CourseRequest) (*repository.CourseChannel, error) {
	course, err := h.courses.ByName(ctx, guildID, req.Name)
	if errors.Is(err, repository.ErrCourseNotFound) {
		return nil, &UserError{Message: fmt.Sprintf("There is no course channel named %s.", req.Name)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up course: %w", err)
	}

	if _, err := h.channels.ChannelDelete(course.ChannelID); err != nil {
		var restErr *discordgo.RESTError
		if !errors.As(err, &restErr) || restErr.Response == nil || restErr.Response.StatusCode != http.StatusNotFound {
			return nil, fmt.Errorf("failed to delete channel: %w", err)
		}
		slog.Warn("course channel was already deleted", "channelID", course.ChannelID)
	}

	if err := h.courses.Delete(ctx, guildID, req.Name); err != nil {
		return nil, fmt.Errorf("failed to delete course: %w", err)
	}
	return &course, nil
}
