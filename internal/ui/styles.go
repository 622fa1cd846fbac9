package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	badgeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	selfStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	systemStyle = lipgloss.NewStyle().Faint(true).Italic(true)
	typingStyle = lipgloss.NewStyle().Faint(true).Italic(true)
	padStyle    = lipgloss.NewStyle().Padding(1, 2)
	tabStyle    = lipgloss.NewStyle().Faint(true)
	activeTab   = lipgloss.NewStyle().Bold(true).Underline(true)
)

// chrome renders the navbar (tabs plus the unread badge) above a view.
func (a *App) chrome(body string) string {
	tabs := []struct {
		v     view
		label string
	}{
		{viewFeed, "F1 Stories"},
		{viewChat, "F2 Chat"},
		{viewNotifications, "F3 Notifications"},
	}

	var bar string
	for i, t := range tabs {
		label := t.label
		if t.v == viewNotifications && a.notifs.unread > 0 {
			label = fmt.Sprintf("%s %s", label, badgeStyle.Render(fmt.Sprintf("(%d)", a.notifs.unread)))
		}
		if a.view == t.v {
			bar += activeTab.Render(label)
		} else {
			bar += tabStyle.Render(label)
		}
		if i < len(tabs)-1 {
			bar += "   "
		}
	}

	who := ""
	if a.signedIn {
		who = helpStyle.Render("  ·  " + a.user.Username)
	}
	head := padStyle.Render(bar + who)
	if a.err != nil {
		head += "\n" + padStyle.Render(errStyle.Render(a.err.Error()))
	}
	return head + "\n" + body
}
