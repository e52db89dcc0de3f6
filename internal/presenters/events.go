package presenters

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/campus-bot/internal/schedule"
)

// discordTimestamp renders a unix time with Discord's timestamp markup, so that every
// reader sees it in their own time zone.
func discordTimestamp(unix int64, style string) string {
	return fmt.Sprintf("<t:%d:%s>", unix, style)
}

func BuildUpcomingEventsResponse(entries []schedule.Entry) *discordgo.InteractionResponse {
	var b strings.Builder
	b.WriteString("**Upcoming events**")
	if len(entries) == 0 {
		b.WriteString("\nNothing is scheduled.")
	}
	for _, e := range entries {
		unix := e.At.Unix()
		fmt.Fprintf(&b, "\n- %s: %s (%s)", e.Event.Title(), discordTimestamp(unix, "F"), discordTimestamp(unix, "R"))
	}

	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: b.String(),
		},
	}
}
