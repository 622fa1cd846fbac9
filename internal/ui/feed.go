package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aflah-pp/NarrativeNexus/internal/models"
)

type feedModel struct {
	stories []models.StorySummary
	cursor  int
	width   int
	height  int
	loading bool
	err     error
}

func newFeedModel() feedModel {
	return feedModel{loading: true}
}

func (m *feedModel) resize(w, h int) {
	m.width = w
	m.height = h
}

func (m *feedModel) apply(msg feedMsg) {
	m.loading = false
	m.err = msg.err
	if msg.err == nil {
		m.stories = msg.stories
		if m.cursor >= len(m.stories) {
			m.cursor = 0
		}
	}
}

func (a *App) loadFeed() tea.Msg {
	stories, err := a.deps.Client.Stories(a.ctx)
	return feedMsg{stories: stories, err: err}
}

func (a *App) updateFeed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if a.feed.cursor > 0 {
			a.feed.cursor--
		}
	case "down", "j":
		if a.feed.cursor < len(a.feed.stories)-1 {
			a.feed.cursor++
		}
	case "l":
		if s, ok := a.feed.selected(); ok {
			return a, a.toggleLike(s.ID)
		}
	case "b":
		if s, ok := a.feed.selected(); ok {
			return a, a.toggleBookmark(s.ID)
		}
	case "r":
		a.feed.loading = true
		return a, a.loadFeed
	}
	return a, nil
}

func (m *feedModel) selected() (models.StorySummary, bool) {
	if m.cursor < 0 || m.cursor >= len(m.stories) {
		return models.StorySummary{}, false
	}
	return m.stories[m.cursor], true
}

func (a *App) toggleLike(id int64) tea.Cmd {
	return func() tea.Msg {
		if _, err := a.deps.Client.ToggleLike(a.ctx, id); err != nil {
			return errMsg{err: err}
		}
		return a.loadFeed()
	}
}

func (a *App) toggleBookmark(id int64) tea.Cmd {
	return func() tea.Msg {
		if _, err := a.deps.Client.ToggleBookmark(a.ctx, id); err != nil {
			return errMsg{err: err}
		}
		return a.loadFeed()
	}
}

func (m feedModel) view() string {
	if m.loading {
		return padStyle.Render("Loading stories...")
	}
	if m.err != nil {
		// Page-level read failure: full error state with a manual way back.
		return padStyle.Render(errStyle.Render("Could not load stories: "+m.err.Error()) +
			"\n\n" + helpStyle.Render("r: retry"))
	}
	if len(m.stories) == 0 {
		return padStyle.Render("No stories yet.")
	}

	var b strings.Builder
	for i, s := range m.stories {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%s", marker, s.Title)
		if s.Genre != "" {
			fmt.Fprintf(&b, " [%s]", s.Genre)
		}
		fmt.Fprintf(&b, " by %s · %d likes · %d bookmarks\n", s.Author, s.LikesCount, s.BookmarksCount)
	}
	b.WriteString("\n" + helpStyle.Render("j/k: move · l: like · b: bookmark · r: refresh"))
	return padStyle.Render(b.String())
}
