package presenters

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/campus-bot/internal/repository"
)

var noCoursesFoundResponse = &discordgo.InteractionResponse{
	Type: discordgo.InteractionResponseChannelMessageWithSource,
	Data: &discordgo.InteractionResponseData{
		Content: "No course channels found",
	},
}

func courseLine(c repository.CourseChannel) string {
	return fmt.Sprintf("- <#%s> `%s`", c.ChannelID, c.Name)
}

func BuildListCoursesResponse(courses []repository.CourseChannel) *discordgo.InteractionResponse {
	if len(courses) == 0 {
		return noCoursesFoundResponse
	}

	var b strings.Builder
	b.WriteString("**Course channels**")
	for _, c := range courses {
		b.WriteString("\n")
		b.WriteString(courseLine(c))
	}

	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: b.String(),
		},
	}
}

func BuildCourseAddedResponse(c repository.CourseChannel) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("Created <#%s> for `%s`.", c.ChannelID, c.Name),
		},
	}
}

func BuildCourseRemovedResponse(c repository.CourseChannel) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("Removed the channel for `%s`.", c.Name),
		},
	}
}
