package announce_test

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/campus-bot/internal/modules/announce"
	"github.com/glizzus/campus-bot/internal/schedule"
	"github.com/google/go-cmp/cmp"
)

type sent struct {
	ChannelID string
	Content   string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sent
}

func (f *fakeSender) ChannelMessageSend(channelID, content string, opts ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{ChannelID: channelID, Content: content})
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func newScheduler(t *testing.T) *schedule.Scheduler {
	t.Helper()
	s, err := schedule.New(schedule.Config{
		Calendar: schedule.Gregorian{},
		Events: map[schedule.Event]schedule.Occurrence{
			schedule.RoshHashana: {Month: 9, Day: 12, Hour: 9},
		},
		Location: time.UTC,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("failed to create scheduler: %v", err)
	}
	return s
}

func TestAnnouncerSendsOnDispatch(t *testing.T) {
	s := newScheduler(t)
	sender := &fakeSender{}

	if err := announce.NewAnnouncer(sender, "4400000000000000001").Register(s); err != nil {
		t.Fatalf("failed to register: %v", err)
	}
	if err := s.Dispatch(t.Context(), schedule.RoshHashana); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	want := []sent{{ChannelID: "4400000000000000001", Content: announce.Message(schedule.RoshHashana)}}
	if diff := cmp.Diff(want, sender.sent); diff != "" {
		t.Errorf("sent messages mismatch (-want +got):\n%s", diff)
	}
}

func TestAnnouncerDisabledWithoutChannel(t *testing.T) {
	s := newScheduler(t)
	sender := &fakeSender{}

	if err := announce.NewAnnouncer(sender, "").Register(s); err != nil {
		t.Fatalf("failed to register: %v", err)
	}
	if err := s.Dispatch(t.Context(), schedule.RoshHashana); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("expected no messages, got %+v", sender.sent)
	}
}

func TestMessageFallsBackToTitle(t *testing.T) {
	if got, want := announce.Message("graduation"), "graduation is here!"; got != want {
		t.Errorf("Message() = %q; want %q", got, want)
	}
}

func TestNewAcademicYearMessageDoesNotClaimArchival(t *testing.T) {
	msg := announce.Message(schedule.NewAcademicYear)
	if strings.Contains(msg, "have been archived") {
		t.Errorf("the announcement runs whether or not archival succeeded, got %q", msg)
	}
	if !strings.Contains(msg, "/course add") {
		t.Errorf("expected the announcement to point at /course add, got %q", msg)
	}
}
