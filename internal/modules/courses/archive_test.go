package courses_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/campus-bot/internal/modules/courses"
	"github.com/glizzus/campus-bot/internal/repository"
	"github.com/google/go-cmp/cmp"
)

type fakeRepo struct {
	repository.CourseRepository
	active   []repository.CourseChannel
	archived []string
}

func (f *fakeRepo) ListActive(ctx context.Context) ([]repository.CourseChannel, error) {
	return f.active, nil
}

func (f *fakeRepo) Archive(ctx context.Context, ids ...string) (int64, error) {
	f.archived = append(f.archived, ids...)
	return int64(len(ids)), nil
}

type fakeEditor struct {
	moved map[string]string
	fail  map[string]error
}

func (f *fakeEditor) ChannelEdit(channelID string, data *discordgo.ChannelEdit, opts ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if err, ok := f.fail[channelID]; ok {
		return nil, err
	}
	f.moved[channelID] = data.ParentID
	return &discordgo.Channel{ID: channelID, ParentID: data.ParentID}, nil
}

func TestArchiveAll(t *testing.T) {
	repo := &fakeRepo{active: []repository.CourseChannel{
		{ID: "a", Name: "algebra-1", ChannelID: "c-a"},
		{ID: "b", Name: "biology-1", ChannelID: "c-b"},
		{ID: "c", Name: "chemistry-1", ChannelID: "c-c"},
	}}
	forbidden := errors.New("missing permissions")
	editor := &fakeEditor{
		moved: map[string]string{},
		fail: map[string]error{
			"c-b": forbidden,
			"c-c": &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}},
		},
	}

	err := courses.NewArchiver(repo, editor, "archive-category").ArchiveAll(t.Context())
	if !errors.Is(err, forbidden) {
		t.Fatalf("expected the failed move to be reported, got %v", err)
	}

	if diff := cmp.Diff(map[string]string{"c-a": "archive-category"}, editor.moved); diff != "" {
		t.Errorf("moved channels mismatch (-want +got):\n%s", diff)
	}
	// A deleted channel counts as archived; a failed move keeps the course active.
	if diff := cmp.Diff([]string{"a", "c"}, repo.archived); diff != "" {
		t.Errorf("archived rows mismatch (-want +got):\n%s", diff)
	}
}

func TestArchiveAllWithoutCategory(t *testing.T) {
	repo := &fakeRepo{active: []repository.CourseChannel{{ID: "a", Name: "algebra-1", ChannelID: "c-a"}}}
	editor := &fakeEditor{moved: map[string]string{}}

	if err := courses.NewArchiver(repo, editor, "").ArchiveAll(t.Context()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(editor.moved) != 0 {
		t.Errorf("expected channels to stay in place, got %v", editor.moved)
	}
	if diff := cmp.Diff([]string{"a"}, repo.archived); diff != "" {
		t.Errorf("archived rows mismatch (-want +got):\n%s", diff)
	}
}
