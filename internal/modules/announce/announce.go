// Package announce posts a message to the announcement channel whenever a
// scheduled event fires.
package announce

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/campus-bot/internal/schedule"
)

// AnnounceBand runs after the event's housekeeping callbacks.
const AnnounceBand = 1

type MessageSender interface {
	ChannelMessageSend(channelID, content string, opts ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ MessageSender = (*discordgo.Session)(nil)

var messages = map[schedule.Event]string{
	schedule.NewAcademicYear: "A new academic year is starting! Last year's course channels are moving to the archive; use `/course add` to open this year's.",
	schedule.RoshHashana:     "Shana Tova! Wishing everyone a good and sweet year.",
	schedule.SemesterB:       "The spring semester starts today. Good luck everyone!",
}

// Message returns the announcement text for ev.
func Message(ev schedule.Event) string {
	if m, ok := messages[ev]; ok {
		return m
	}
	return fmt.Sprintf("%s is here!", ev.Title())
}

type Announcer struct {
	sender    MessageSender
	channelID string
}

func NewAnnouncer(sender MessageSender, channelID string) *Announcer {
	return &Announcer{sender: sender, channelID: channelID}
}

// Register subscribes the announcer to every event of s. Nothing is registered
// when no announcement channel is configured.
func (a *Announcer) Register(s *schedule.Scheduler) error {
	if a.channelID == "" {
		slog.Info("No announcement channel configured, announcements are disabled")
		return nil
	}
	for _, ev := range s.Events() {
		err := s.Register(ev, AnnounceBand, "announce."+string(ev), func(ctx context.Context) error {
			return a.Announce(ctx, ev)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *Announcer) Announce(ctx context.Context, ev schedule.Event) error {
	_, err := a.sender.ChannelMessageSend(a.channelID, Message(ev), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to announce %s: %w", ev, err)
	}
	return nil
}
