package realtime

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"
)

var (
	ErrNotOpen      = errors.New("channel is not open")
	ErrNoCredential = errors.New("no credential available")
)

// State is the per-channel connection state.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateErrored:
		return "errored"
	default:
		return "closed"
	}
}

// Conn is the minimal socket surface the manager needs. The gorilla
// implementation lives in conn.go; tests substitute their own.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteJSON(v any) error
	Close() error
}

// Dialer opens a Conn for a fully formed URL (credential included).
type Dialer interface {
	Dial(ctx context.Context, rawURL string) (Conn, error)
}

// Subscriber receives every inbound frame of a channel, in arrival order.
// The manager does not interpret payloads; that belongs to the consumer.
type Subscriber func(frame []byte)

// Manager owns the lifecycle of socket connections keyed by logical channel
// name. Channels are fully independent: one failing does not affect another.
//
// A dropped connection does not stay dropped: read errors trigger
// redialing with exponential backoff, and each dial reads the credential
// fresh, so a token refresh takes effect on the next dial rather than
// leaving the socket authenticated with a stale token.
type Manager struct {
	dialer  Dialer
	logger  *slog.Logger
	baseOff time.Duration
	maxOff  time.Duration

	mu       sync.Mutex
	channels map[string]*Channel
}

func NewManager(dialer Dialer, logger *slog.Logger) *Manager {
	if dialer == nil {
		dialer = defaultDialer()
	}
	return &Manager{
		dialer:   dialer,
		logger:   logger,
		baseOff:  time.Second,
		maxOff:   30 * time.Second,
		channels: make(map[string]*Channel),
	}
}

// Connect opens the named channel. If it is already open or connecting the
// existing handle is returned untouched. An empty credential refuses the
// attempt: connecting on absent auth is never useful.
func (m *Manager) Connect(ctx context.Context, name, rawURL string, credential func() string, sub Subscriber) (*Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ch, ok := m.channels[name]; ok {
		switch ch.State() {
		case StateOpen, StateConnecting:
			return ch, nil
		}
		// Errored or closed: stop the stale run loop before replacing the
		// entry, or its goroutine would keep redialing unowned.
		ch.shutdown()
		delete(m.channels, name)
	}

	if credential == nil || credential() == "" {
		return nil, ErrNoCredential
	}

	chCtx, cancel := context.WithCancel(ctx)
	ch := &Channel{
		name:       name,
		url:        rawURL,
		credential: credential,
		sub:        sub,
		dialer:     m.dialer,
		logger:     m.logger.With("channel", name),
		baseOff:    m.baseOff,
		maxOff:     m.maxOff,
		cancel:     cancel,
		done:       make(chan struct{}),
		state:      StateConnecting,
	}
	m.channels[name] = ch

	go ch.run(chCtx)
	return ch, nil
}

// Disconnect tears the named channel down. Idempotent, safe if already
// closed or never connected.
func (m *Manager) Disconnect(name string) {
	m.mu.Lock()
	ch, ok := m.channels[name]
	if ok {
		delete(m.channels, name)
	}
	m.mu.Unlock()

	if ok {
		ch.shutdown()
	}
}

// State reports the named channel's state, StateClosed when unknown.
func (m *Manager) State(name string) State {
	m.mu.Lock()
	ch, ok := m.channels[name]
	m.mu.Unlock()
	if !ok {
		return StateClosed
	}
	return ch.State()
}

// Send marshals v onto the named channel's open socket. ErrNotOpen when the
// channel is absent, still connecting, or errored: the caller decides
// whether that is worth surfacing.
func (m *Manager) Send(name string, v any) error {
	m.mu.Lock()
	ch, ok := m.channels[name]
	m.mu.Unlock()
	if !ok {
		return ErrNotOpen
	}
	return ch.Send(v)
}

// Shutdown disconnects every channel.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	channels := make([]*Channel, 0, len(m.channels))
	for name, ch := range m.channels {
		channels = append(channels, ch)
		delete(m.channels, name)
	}
	m.mu.Unlock()

	for _, ch := range channels {
		ch.shutdown()
	}
}

// Channel is one named socket connection and its redial loop.
type Channel struct {
	name       string
	url        string
	credential func() string
	sub        Subscriber
	dialer     Dialer
	logger     *slog.Logger
	baseOff    time.Duration
	maxOff     time.Duration
	cancel     context.CancelFunc
	done       chan struct{}

	mu    sync.Mutex
	state State
	conn  Conn
}

func (ch *Channel) Name() string { return ch.name }

func (ch *Channel) State() State {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state
}

func (ch *Channel) Send(v any) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.state != StateOpen || ch.conn == nil {
		return ErrNotOpen
	}
	return ch.conn.WriteJSON(v)
}

func (ch *Channel) setState(s State) {
	ch.mu.Lock()
	ch.state = s
	ch.mu.Unlock()
}

func (ch *Channel) shutdown() {
	ch.cancel()
	ch.mu.Lock()
	conn := ch.conn
	ch.mu.Unlock()
	if conn != nil {
		// Unblocks the read loop.
		_ = conn.Close()
	}
	<-ch.done
}

// run dials, pumps frames to the subscriber, and redials on failure until
// the channel context is cancelled. The credential is re-read before every
// dial so a refreshed token is picked up.
func (ch *Channel) run(ctx context.Context) {
	defer close(ch.done)

	backoff := ch.baseOff
	for {
		token := ch.credential()
		if token == "" {
			ch.logger.Warn("credential gone, channel giving up")
			ch.setState(StateErrored)
			return
		}

		target, err := withToken(ch.url, token)
		if err != nil {
			ch.logger.Error("bad channel url", "error", err)
			ch.setState(StateErrored)
			return
		}

		ch.setState(StateConnecting)
		conn, err := ch.dialer.Dial(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				ch.setState(StateClosed)
				return
			}
			ch.logger.Warn("dial failed", "error", err, "retry_in", backoff)
			ch.setState(StateErrored)
			select {
			case <-ctx.Done():
				ch.setState(StateClosed)
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, ch.maxOff)
			continue
		}

		ch.mu.Lock()
		ch.conn = conn
		ch.state = StateOpen
		ch.mu.Unlock()
		ch.logger.Debug("channel open")
		backoff = ch.baseOff

		ch.pump(ctx, conn)

		_ = conn.Close()
		ch.mu.Lock()
		ch.conn = nil
		ch.mu.Unlock()

		if ctx.Err() != nil {
			ch.setState(StateClosed)
			return
		}
		ch.logger.Info("connection lost, reconnecting")
	}
}

// pump reads frames until the connection fails or the context ends. Frames
// are dispatched from this single goroutine, preserving arrival order, and
// never after cancellation.
func (ch *Channel) pump(ctx context.Context, conn Conn) {
	for {
		frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				ch.logger.Debug("read failed", "error", err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		if ch.sub != nil {
			ch.sub(frame)
		}
	}
}

// withToken appends the credential the way the socket server expects it,
// as a ?token= query parameter.
func withToken(rawURL, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
