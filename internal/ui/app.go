package ui

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aflah-pp/NarrativeNexus/internal/api"
	"github.com/aflah-pp/NarrativeNexus/internal/chatroom"
	"github.com/aflah-pp/NarrativeNexus/internal/config"
	"github.com/aflah-pp/NarrativeNexus/internal/guard"
	"github.com/aflah-pp/NarrativeNexus/internal/models"
	"github.com/aflah-pp/NarrativeNexus/internal/notify"
	"github.com/aflah-pp/NarrativeNexus/internal/realtime"
	"github.com/aflah-pp/NarrativeNexus/internal/session"
)

type view int

const (
	viewLogin view = iota
	viewFeed
	viewChat
	viewNotifications
)

// Deps is everything the presentation layer consumes. It owns none of it.
type Deps struct {
	Cfg    *config.Config
	Store  *session.Store
	Client *api.Client
	Guard  *guard.Guard
	RT     *realtime.Manager
	Logger *slog.Logger
}

// Messages crossing the event loop boundary.
type (
	authResolvedMsg struct{ decision guard.Decision }
	identityMsg     struct {
		user models.UserSummary
		err  error
	}
	feedMsg struct {
		stories []models.StorySummary
		err     error
	}
	historyLoadedMsg  struct{ err error }
	chatChangedMsg    struct{}
	rosterResolvedMsg struct{ names map[string]string }
	badgeChangedMsg   struct{ unread int }
	loginResultMsg    struct{ err error }
	sendResultMsg     struct{ err error }
	errMsg            struct{ err error }
)

// App is the root bubbletea model: a thin consumer of the client core.
type App struct {
	ctx  context.Context
	deps Deps

	chat      *chatroom.Session
	badge     *notify.Badge
	directory *chatroom.Directory

	// events carries core-state change signals into the tea loop.
	events chan tea.Msg

	view     view
	from     view // requested view preserved across a login bounce
	width    int
	height   int
	user     models.UserSummary
	signedIn bool
	err      error

	login  loginModel
	feed   feedModel
	chatUI chatModel
	notifs notifModel
}

func NewApp(ctx context.Context, deps Deps) *App {
	events := make(chan tea.Msg, 64)

	chat := chatroom.New(deps.Client, deps.RT, "", deps.Cfg.TypingTimeout, deps.Logger)
	chat.SetOnChange(func() { push(events, chatChangedMsg{}) })

	badge := notify.New(ctx, deps.Client, deps.Logger)
	badge.SetOnChange(func(unread int) { push(events, badgeChangedMsg{unread: unread}) })

	return &App{
		ctx:       ctx,
		deps:      deps,
		chat:      chat,
		badge:     badge,
		directory: chatroom.NewDirectory(ctx, deps.Client),
		events:    events,
		view:      viewLogin,
		from:      viewFeed,
		login:     newLoginModel(),
		feed:      newFeedModel(),
		chatUI:    newChatModel(),
		notifs:    newNotifModel(),
	}
}

// push never blocks the core on a slow UI; a dropped repaint signal is
// repainted by the next one.
func push(events chan tea.Msg, msg tea.Msg) {
	select {
	case events <- msg:
	default:
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.waitEvent, a.authorize(viewFeed))
}

func (a *App) waitEvent() tea.Msg {
	select {
	case msg := <-a.events:
		return msg
	case <-a.ctx.Done():
		return nil
	}
}

// authorize gates a protected navigation. Each call is a fresh resolution:
// unknown until the decision message arrives.
func (a *App) authorize(target view) tea.Cmd {
	return func() tea.Msg {
		decision := a.deps.Guard.Authorize(a.ctx, viewName(target))
		return authResolvedMsg{decision: decision}
	}
}

func (a *App) refreshIdentity() tea.Msg {
	user, err := a.deps.Store.RefreshIdentity(a.ctx)
	return identityMsg{user: user, err: err}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.chatUI.resize(msg.Width, msg.Height)
		a.feed.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			a.teardown()
			return a, tea.Quit
		}
		return a.updateView(msg)

	case authResolvedMsg:
		if msg.decision.Authorization == guard.Authorized {
			return a, tea.Batch(a.refreshIdentity, a.loadFeed)
		}
		// Unauthorized always lands on login, never an in-page error.
		a.view = viewLogin
		return a, nil

	case identityMsg:
		if msg.err != nil {
			a.view = viewLogin
			return a, nil
		}
		a.user = msg.user
		a.signedIn = true
		a.view = a.from
		a.chat = chatroom.New(a.deps.Client, a.deps.RT, a.user.Username, a.deps.Cfg.TypingTimeout, a.deps.Logger)
		a.chat.SetOnChange(func() { push(a.events, chatChangedMsg{}) })
		return a, a.mountNotifications()

	case loginResultMsg:
		if msg.err != nil {
			a.login.err = msg.err
			return a, nil
		}
		return a, a.refreshIdentity

	case feedMsg:
		a.feed.apply(msg)
		return a, nil

	case historyLoadedMsg:
		if msg.err != nil {
			a.chatUI.err = msg.err
		}
		return a, nil

	case chatChangedMsg:
		a.chatUI.sync(a.chat)
		return a, tea.Batch(a.waitEvent, a.resolveRoster())

	case rosterResolvedMsg:
		a.chatUI.names = msg.names
		return a, nil

	case badgeChangedMsg:
		a.notifs.unread = msg.unread
		a.notifs.items = a.badge.Items()
		return a, a.waitEvent

	case sendResultMsg:
		a.chatUI.sendErr = msg.err
		return a, nil

	case errMsg:
		a.err = msg.err
		return a, nil
	}

	return a, nil
}

func (a *App) updateView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Tab switching is a navigation: protected views re-run the guard.
	if a.signedIn {
		switch msg.String() {
		case "f1":
			return a.navigate(viewFeed)
		case "f2":
			return a.navigate(viewChat)
		case "f3":
			return a.navigate(viewNotifications)
		}
	}

	switch a.view {
	case viewLogin:
		return a.updateLogin(msg)
	case viewFeed:
		return a.updateFeed(msg)
	case viewChat:
		return a.updateChat(msg)
	case viewNotifications:
		return a.updateNotifications(msg)
	}
	return a, nil
}

// navigate leaves the current view (tearing down what it mounted) and gates
// entry to the next one.
func (a *App) navigate(target view) (tea.Model, tea.Cmd) {
	if a.view == target {
		return a, nil
	}
	if a.view == viewChat {
		a.unmountChat()
	}
	a.from = target
	a.err = nil

	decision := a.deps.Guard.Authorize(a.ctx, viewName(target))
	if decision.Authorization != guard.Authorized {
		a.signedIn = false
		a.view = viewLogin
		return a, nil
	}

	a.view = target
	switch target {
	case viewFeed:
		return a, a.loadFeed
	case viewChat:
		return a, a.mountChat()
	case viewNotifications:
		return a, a.loadNotifications
	}
	return a, nil
}

func (a *App) teardown() {
	a.deps.RT.Shutdown()
	a.chat.Stop()
}

func (a *App) View() string {
	switch a.view {
	case viewLogin:
		return a.login.view(a.width)
	case viewFeed:
		return a.chrome(a.feed.view())
	case viewChat:
		return a.chrome(a.chatUI.view(a.deps.RT.State(chatroom.ChannelName), a.user.Username))
	case viewNotifications:
		return a.chrome(a.notifs.view())
	}
	return ""
}

func viewName(v view) string {
	switch v {
	case viewFeed:
		return "feed"
	case viewChat:
		return "chat"
	case viewNotifications:
		return "notifications"
	default:
		return "login"
	}
}
