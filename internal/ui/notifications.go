package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aflah-pp/NarrativeNexus/internal/models"
	"github.com/aflah-pp/NarrativeNexus/internal/notify"
)

type notifModel struct {
	items  []models.Notification
	cursor int
	unread int
	err    error
}

func newNotifModel() notifModel {
	return notifModel{}
}

// mountNotifications runs once the identity is resolved: the badge follows
// the signed-in user for the whole session. The channel credential is read
// fresh on every (re)dial.
func (a *App) mountNotifications() tea.Cmd {
	return tea.Batch(
		func() tea.Msg {
			_, err := a.deps.RT.Connect(a.ctx, notify.ChannelName,
				a.deps.Cfg.NotifySocketURL, a.deps.Store.AccessToken, a.badge.HandleFrame)
			if err != nil {
				return errMsg{err: err}
			}
			return nil
		},
		a.loadNotifications,
	)
}

func (a *App) loadNotifications() tea.Msg {
	if _, err := a.badge.OpenList(a.ctx); err != nil {
		return errMsg{err: err}
	}
	return badgeChangedMsg{unread: a.badge.Unread()}
}

func (a *App) updateNotifications(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if a.notifs.cursor > 0 {
			a.notifs.cursor--
		}
	case "down", "j":
		if a.notifs.cursor < len(a.notifs.items)-1 {
			a.notifs.cursor++
		}
	case "enter":
		if a.notifs.cursor < len(a.notifs.items) {
			item := a.notifs.items[a.notifs.cursor]
			if !item.IsRead {
				return a, func() tea.Msg {
					if err := a.badge.MarkRead(a.ctx, item.ID); err != nil {
						return errMsg{err: err}
					}
					return badgeChangedMsg{unread: a.badge.Unread()}
				}
			}
		}
	case "r":
		return a, a.loadNotifications
	}
	return a, nil
}

func (m notifModel) view() string {
	if len(m.items) == 0 {
		return padStyle.Render("No notifications yet.")
	}

	var b strings.Builder
	for i, n := range m.items {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		bullet := "  "
		if !n.IsRead {
			bullet = badgeStyle.Render("●") + " "
		}
		fmt.Fprintf(&b, "%s%s%s\n", marker, bullet, n.Message)
	}
	b.WriteString("\n" + helpStyle.Render("j/k: move · enter: mark read · r: refresh"))
	return padStyle.Render(b.String())
}
