package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aflah-pp/NarrativeNexus/internal/chatroom"
	"github.com/aflah-pp/NarrativeNexus/internal/models"
	"github.com/aflah-pp/NarrativeNexus/internal/realtime"
)

type chatModel struct {
	input    textinput.Model
	messages []models.ChatMessage
	typing   string
	online   []string
	names    map[string]string // username -> display name, directory-resolved
	count    int
	width    int
	height   int
	err      error
	sendErr  error
}

func newChatModel() chatModel {
	input := textinput.New()
	input.Placeholder = "Message..."
	input.CharLimit = 1000
	input.Focus()
	return chatModel{input: input}
}

func (m *chatModel) resize(w, h int) {
	m.width = w
	m.height = h
	m.input.Width = w - 4
}

// sync snapshots the chat session's state for rendering.
func (m *chatModel) sync(chat *chatroom.Session) {
	m.messages = chat.Messages()
	m.typing, _ = chat.TypingUser()
	m.online = chat.OnlineUsers()
	m.count = chat.OnlineCount()
}

// mountChat opens the chat channel and backfills history. The connection
// only happens with an identity and a credential present; the guard already
// established both on this navigation.
func (a *App) mountChat() tea.Cmd {
	if !a.signedIn || a.deps.Store.AccessToken() == "" {
		return nil
	}
	a.chatUI.input.Focus()
	return tea.Batch(
		func() tea.Msg {
			_, err := a.deps.RT.Connect(a.ctx, chatroom.ChannelName,
				a.deps.Cfg.ChatSocketURL, a.deps.Store.AccessToken, a.chat.HandleFrame)
			if err != nil {
				return errMsg{err: err}
			}
			return nil
		},
		func() tea.Msg {
			return historyLoadedMsg{err: a.chat.LoadHistory(a.ctx)}
		},
	)
}

// unmountChat tears the channel down so no further handler runs against a
// disposed view.
func (a *App) unmountChat() {
	a.deps.RT.Disconnect(chatroom.ChannelName)
	a.chat.Stop()
}

// resolveRoster swaps roster usernames for directory display names off the
// event loop. A miss is fine; the username renders as-is until the
// directory fills in.
func (a *App) resolveRoster() tea.Cmd {
	online := make([]string, len(a.chatUI.online))
	copy(online, a.chatUI.online)
	if len(online) == 0 {
		return nil
	}
	return func() tea.Msg {
		names := make(map[string]string, len(online))
		for _, username := range online {
			user, err := a.directory.Lookup(a.ctx, username)
			if err != nil {
				continue
			}
			names[username] = user.DisplayName()
		}
		return rosterResolvedMsg{names: names}
	}
}

func (a *App) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		body := a.chatUI.input.Value()
		if strings.TrimSpace(body) == "" {
			return a, nil
		}
		a.chatUI.input.SetValue("")
		return a, func() tea.Msg {
			return sendResultMsg{err: a.chat.Send(body)}
		}
	}

	var cmd tea.Cmd
	a.chatUI.input, cmd = a.chatUI.input.Update(msg)

	// Every keystroke signals typing, no sender-side debounce. A closed
	// socket is not worth surfacing here.
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeyBackspace {
		if err := a.chat.NotifyTyping(true); err != nil && !errors.Is(err, realtime.ErrNotOpen) {
			a.deps.Logger.Debug("typing signal failed", "error", err)
		}
	}
	return a, cmd
}

// rosterLabel prefers the directory's display name for a roster entry.
func (m chatModel) rosterLabel(username string) string {
	if name, ok := m.names[username]; ok && name != "" {
		return name
	}
	return username
}

func (m chatModel) view(state realtime.State, self string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "#global · %d online", m.count)
	if state != realtime.StateOpen {
		fmt.Fprintf(&b, " · %s", errStyle.Render(state.String()))
	}
	if len(m.online) > 0 {
		shown := m.online
		if len(shown) > 5 {
			shown = shown[:5]
		}
		labels := make([]string, len(shown))
		for i, username := range shown {
			labels[i] = m.rosterLabel(username)
		}
		fmt.Fprintf(&b, " (%s", strings.Join(labels, ", "))
		if len(m.online) > 5 {
			fmt.Fprintf(&b, " +%d", len(m.online)-5)
		}
		b.WriteString(")")
	}
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errStyle.Render("History unavailable: "+m.err.Error()) + "\n")
	}

	visible := m.messages
	if max := m.height - 10; max > 0 && len(visible) > max {
		visible = visible[len(visible)-max:]
	}
	for _, msg := range visible {
		switch {
		case msg.User == "system" || msg.User == "moderator":
			if msg.Content != "" {
				b.WriteString(systemStyle.Render(msg.Content) + "\n")
			}
		case msg.User == self:
			b.WriteString(selfStyle.Render(fmt.Sprintf("%s: %s", msg.User, msg.Content)) + "\n")
		default:
			fmt.Fprintf(&b, "%s: %s\n", msg.User, msg.Content)
		}
	}

	if m.typing != "" {
		b.WriteString(typingStyle.Render(m.typing+" is typing...") + "\n")
	}
	if m.sendErr != nil {
		b.WriteString(errStyle.Render("Not delivered: "+m.sendErr.Error()) + "\n")
	}

	b.WriteString("\n" + m.input.View())
	return padStyle.Render(b.String())
}
