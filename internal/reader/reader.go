package reader

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/aflah-pp/NarrativeNexus/internal/models"
)

const wordsPerMinute = 200

// Source is the slice of the API client the reading view needs.
type Source interface {
	Story(ctx context.Context, id int64) (models.Story, error)
	Chapter(ctx context.Context, storyID int64, chapterNo int) (models.Chapter, error)
	Chapters(ctx context.Context, storyID int64) ([]models.Chapter, error)
	Me(ctx context.Context) (models.UserSummary, error)
}

// View is everything the reading screen renders.
type View struct {
	Story       models.Story
	Chapter     models.Chapter
	Chapters    []models.Chapter
	IsAuthor    bool
	ReadingTime int // minutes, estimated
}

// Load fetches the story, the requested chapter, the chapter list and the
// identity concurrently and joins them. Any single failure fails the whole
// join; there is no per-call fallback.
func Load(ctx context.Context, src Source, storyID int64, chapterNo int) (*View, error) {
	var view View
	var me models.UserSummary

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		view.Story, err = src.Story(gCtx, storyID)
		return err
	})
	g.Go(func() error {
		var err error
		view.Chapter, err = src.Chapter(gCtx, storyID, chapterNo)
		return err
	})
	g.Go(func() error {
		var err error
		view.Chapters, err = src.Chapters(gCtx, storyID)
		return err
	})
	g.Go(func() error {
		var err error
		me, err = src.Me(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(view.Chapters, func(i, j int) bool {
		return view.Chapters[i].ChapterNo < view.Chapters[j].ChapterNo
	})
	view.IsAuthor = view.Story.Author == me.Username
	view.ReadingTime = readingTime(view.Chapter.Content)
	return &view, nil
}

func readingTime(content string) int {
	words := len(strings.Fields(content))
	if words == 0 {
		return 0
	}
	return (words + wordsPerMinute - 1) / wordsPerMinute
}
