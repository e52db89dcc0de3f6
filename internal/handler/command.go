package handler

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

var courseNameOption = &discordgo.ApplicationCommandOption{
	Name:        "name",
	Type:        discordgo.ApplicationCommandOptionString,
	Description: "The course name, e.g. calculus-1.",
	Required:    true,
	MaxLength:   MaxCourseNameLength,
}

var manageChannels int64 = discordgo.PermissionManageChannels

// Commands is a list of all the commands the bot can handle.
// This is used to register the commands with Discord.
var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "ping",
		Description: "Check that the bot is alive",
	},
	{
		Name:        "events",
		Description: "Show when the recurring calendar events fire next",
	},
	{
		Name:                     "course",
		Description:              "Manage course channels",
		DefaultMemberPermissions: &manageChannels,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "list",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "List the active course channels",
			},
			{
				Name:        "add",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Create a channel for a course",
				Options:     []*discordgo.ApplicationCommandOption{courseNameOption},
			},
			{
				Name:        "remove",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "Delete a course channel",
				Options:     []*discordgo.ApplicationCommandOption{courseNameOption},
			},
		},
	},
}

// EstablishCommands overwrites the application commands of guildID, or the
// global commands when guildID is empty.
func EstablishCommands(s *discordgo.Session, guildID string) error {
	_, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, guildID, Commands)
	if err != nil {
		return fmt.Errorf("failed to establish commands: %w", err)
	}
	return nil
}
