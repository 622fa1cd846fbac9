package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aflah-pp/NarrativeNexus/internal/api"
	"github.com/aflah-pp/NarrativeNexus/internal/config"
	"github.com/aflah-pp/NarrativeNexus/internal/content"
	"github.com/aflah-pp/NarrativeNexus/internal/guard"
	"github.com/aflah-pp/NarrativeNexus/internal/reader"
	"github.com/aflah-pp/NarrativeNexus/internal/session"
)

// Export renders one chapter to a standalone HTML file using the stored
// session. spec is "storyID/chapterNo", e.g. "12/3".
func Export(ctx context.Context, cfg *config.Config, spec string, logger *slog.Logger) error {
	storyID, chapterNo, err := parseExportSpec(spec)
	if err != nil {
		return err
	}

	store, err := session.Open(cfg.StateFile, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	client, err := api.New(cfg.BaseURL, store, logger)
	if err != nil {
		return err
	}
	store.BindIdentity(client)

	decision := guard.New(store, client, logger).Authorize(ctx, "export")
	if decision.Authorization != guard.Authorized {
		return fmt.Errorf("not logged in; run the client and log in first")
	}

	view, err := reader.Load(ctx, client, storyID, chapterNo)
	if err != nil {
		return fmt.Errorf("failed to load chapter: %w", err)
	}

	page, err := content.RenderChapterHTML(
		view.Story.Title, view.Story.Author,
		view.Chapter.ChapterNo, view.Chapter.Title, view.Chapter.Content,
	)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("story-%d-chapter-%d.html", storyID, chapterNo)
	if err := os.WriteFile(name, []byte(page), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	fmt.Printf("Exported %q (chapter %d of %q, ~%d min read) to %s\n",
		view.Chapter.Title, view.Chapter.ChapterNo, view.Story.Title, view.ReadingTime, name)
	return nil
}

func parseExportSpec(spec string) (int64, int, error) {
	parts := strings.SplitN(spec, "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("export spec must be storyID/chapterNo, got %q", spec)
	}
	storyID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid story id %q", parts[0])
	}
	chapterNo, err := strconv.Atoi(parts[1])
	if err != nil || chapterNo <= 0 {
		return 0, 0, fmt.Errorf("invalid chapter number %q", parts[1])
	}
	return storyID, chapterNo, nil
}
