package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/glizzus/campus-bot/internal/generator"
	"github.com/glizzus/campus-bot/internal/presenters"
	"github.com/glizzus/campus-bot/internal/repository"
	"github.com/glizzus/campus-bot/internal/schedule"
)

type ReadyHandler = func(*discordgo.Session, *discordgo.Ready)
type InteractionCreateHandler = func(*discordgo.Session, *discordgo.InteractionCreate)

var ReadyLog = func(s *discordgo.Session, r *discordgo.Ready) {
	username := r.User.Username
	userID := r.User.ID
	slog.Info("Bot is ready", "username", username, "userID", userID)
}

// DiscordSession is the part of a discordgo session used to answer interactions.
type DiscordSession interface {
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, opts ...discordgo.RequestOption) error
	InteractionResponseEdit(i *discordgo.Interaction, wh *discordgo.WebhookEdit, opts ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ChannelManager is the part of a discordgo session that creates and removes channels.
type ChannelManager interface {
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, opts ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelDelete(channelID string, opts ...discordgo.RequestOption) (*discordgo.Channel, error)
}

var (
	_ DiscordSession = (*discordgo.Session)(nil)
	_ ChannelManager = (*discordgo.Session)(nil)
)

// UpcomingLister reports the next occurrence of every scheduled event.
type UpcomingLister interface {
	Upcoming() ([]schedule.Entry, error)
}

// Deps are the collaborators of the interaction handler.
type Deps struct {
	Courses          repository.CourseRepository
	Channels         ChannelManager
	Schedule         UpcomingLister
	IDs              generator.Generator[string]
	AcademicYear     func() (int, error)
	CourseCategoryID string
	Timeout          time.Duration
}

type interactionHandler struct {
	courses          repository.CourseRepository
	channels         ChannelManager
	schedule         UpcomingLister
	ids              generator.Generator[string]
	academicYear     func() (int, error)
	courseCategoryID string
	timeout          time.Duration
}

// NewInteractionHandler routes slash commands to their implementations.
func NewInteractionHandler(deps Deps) func(DiscordSession, *discordgo.InteractionCreate) {
	h := &interactionHandler{
		courses:          deps.Courses,
		channels:         deps.Channels,
		schedule:         deps.Schedule,
		ids:              deps.IDs,
		academicYear:     deps.AcademicYear,
		courseCategoryID: deps.CourseCategoryID,
		timeout:          deps.Timeout,
	}
	if h.ids == nil {
		h.ids = &generator.UUIDV7Generator{}
	}
	if h.timeout == 0 {
		h.timeout = 10 * time.Second
	}
	return h.handle
}

func (h *interactionHandler) handle(s DiscordSession, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	command := i.ApplicationCommandData()
	resp, err := h.route(ctx, i, command)
	if err != nil {
		var userErr *UserError
		var existsErr *CourseAlreadyExistsError
		switch {
		case errors.As(err, &userErr):
			resp = presenters.BuildErrorResponse(userErr.Message)
		case errors.As(err, &existsErr):
			resp = presenters.BuildErrorResponse("A course channel named " + existsErr.Name + " already exists.")
		default:
			slog.Error("Failed to handle command", "command", command.Name, "guildID", i.GuildID, "error", err)
			resp = presenters.BuildErrorResponse("Something went wrong, please try again later.")
		}
	}
	if resp == nil {
		return
	}

	if err := s.InteractionRespond(i.Interaction, resp); err != nil {
		slog.Error("Failed to respond to command", "command", command.Name, "error", err)
	}
}

func (h *interactionHandler) route(
	ctx context.Context,
	i *discordgo.InteractionCreate,
	command discordgo.ApplicationCommandInteractionData,
) (*discordgo.InteractionResponse, error) {
	switch command.Name {
	case "ping":
		return presenters.BuildPongResponse(), nil
	case "events":
		entries, err := h.schedule.Upcoming()
		if err != nil {
			return nil, err
		}
		return presenters.BuildUpcomingEventsResponse(entries), nil
	case "course":
		if i.GuildID == "" {
			return nil, &UserError{Message: "Course channels can only be managed inside a server."}
		}
		if len(command.Options) == 0 {
			slog.Warn("No subcommand provided for course command")
			return nil, nil
		}
		return h.routeCourse(ctx, i.GuildID, command.Options[0])
	default:
		slog.Warn("Unknown command", "command", command.Name)
		return nil, nil
	}
}

func (h *interactionHandler) routeCourse(
	ctx context.Context,
	guildID string,
	subCommand *discordgo.ApplicationCommandInteractionDataOption,
) (*discordgo.InteractionResponse, error) {
	switch subCommand.Name {
	case "list":
		courses, err := h.courses.List(ctx, guildID)
		if err != nil {
			return nil, err
		}
		return presenters.BuildListCoursesResponse(courses), nil
	case "add":
		req, err := CommandToCourseRequest(subCommand.Options)
		if err != nil {
			return nil, err
		}
		course, err := h.addCourse(ctx, guildID, req)
		if err != nil {
			return nil, err
		}
		slog.Info("Course channel created", "guildID", guildID, "course", course.Name, "channelID", course.ChannelID)
		return presenters.BuildCourseAddedResponse(*course), nil
	case "remove":
		req, err := CommandToCourseRequest(subCommand.Options)
		if err != nil {
			return nil, err
		}
		course, err := h.removeCourse(ctx, guildID, req)
		if err != nil {
			return nil, err
		}
		slog.Info("Course channel removed", "guildID", guildID, "course", course.Name)
		return presenters.BuildCourseRemovedResponse(*course), nil
	default:
		slog.Warn("Unknown course subcommand", "subcommand", subCommand.Name)
		return nil, nil
	}
}

type Handlers struct {
	Ready             ReadyHandler
	InteractionCreate func(DiscordSession, *discordgo.InteractionCreate)
}

// Adapt turns an interaction handler into a discordgo event handler.
func Adapt(h func(DiscordSession, *discordgo.InteractionCreate)) InteractionCreateHandler {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		h(s, i)
	}
}

func NewSession(token string, handlers Handlers) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	if handlers.Ready != nil {
		s.AddHandler(handlers.Ready)
	}
	if handlers.InteractionCreate != nil {
		s.AddHandler(Adapt(handlers.InteractionCreate))
	}

	return s, nil
}
