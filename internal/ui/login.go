package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aflah-pp/NarrativeNexus/internal/content"
)

type loginModel struct {
	username textinput.Model
	password textinput.Model
	focused  int
	err      error
}

func newLoginModel() loginModel {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword

	return loginModel{username: username, password: password}
}

func (a *App) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab, tea.KeyShiftTab:
		a.login.focused = (a.login.focused + 1) % 2
		if a.login.focused == 0 {
			a.login.username.Focus()
			a.login.password.Blur()
		} else {
			a.login.username.Blur()
			a.login.password.Focus()
		}
		return a, nil

	case tea.KeyEnter:
		username := a.login.username.Value()
		password := a.login.password.Value()
		if err := content.ValidateUsername(username); err != nil {
			a.login.err = err
			return a, nil
		}
		return a, a.doLogin(username, password)
	}

	var cmd tea.Cmd
	if a.login.focused == 0 {
		a.login.username, cmd = a.login.username.Update(msg)
	} else {
		a.login.password, cmd = a.login.password.Update(msg)
	}
	return a, cmd
}

func (a *App) doLogin(username, password string) tea.Cmd {
	return func() tea.Msg {
		pair, err := a.deps.Client.ObtainToken(a.ctx, username, password)
		if err != nil {
			return loginResultMsg{err: err}
		}
		if err := a.deps.Store.Login(pair.Access, pair.Refresh); err != nil {
			return loginResultMsg{err: err}
		}
		return loginResultMsg{}
	}
}

func (m loginModel) view(width int) string {
	body := titleStyle.Render("NarrativeNexus") + "\n\n" +
		m.username.View() + "\n" +
		m.password.View() + "\n\n" +
		helpStyle.Render("enter: sign in · tab: switch field · ctrl+c: quit")
	if m.err != nil {
		body += "\n\n" + errStyle.Render(m.err.Error())
	}
	return padStyle.Width(width).Render(body)
}
