package chatroom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aflah-pp/NarrativeNexus/internal/models"
)

// ChannelName is the realtime channel this session consumes.
const ChannelName = "chat"

var (
	ErrEmptyMessage = errors.New("message body is empty")
)

// History backfills the room's message log. The API client satisfies it.
type History interface {
	ChatMessages(ctx context.Context) ([]models.ChatMessage, error)
}

// Sender pushes outbound frames onto a named realtime channel. The realtime
// manager satisfies it; it reports when the socket is not open.
type Sender interface {
	Send(channel string, v any) error
}

// Session holds the single shared room's state: ordered message history,
// the typing indicator and the online-presence roster. All inbound frames
// arrive through HandleFrame from the channel's single reader goroutine, so
// updates apply in arrival order.
type Session struct {
	history       History
	sender        Sender
	self          string
	typingTimeout time.Duration
	logger        *slog.Logger

	mu          sync.RWMutex
	messages    []models.ChatMessage
	typingUser  string
	typingTimer *time.Timer
	typingGen   uint64
	onlineUsers []string
	onlineCount int
	onChange    func()
}

func New(history History, sender Sender, self string, typingTimeout time.Duration, logger *slog.Logger) *Session {
	return &Session{
		history:       history,
		sender:        sender,
		self:          self,
		typingTimeout: typingTimeout,
		logger:        logger,
	}
}

// SetOnChange registers a callback fired after any state change. Used by
// the view layer to repaint.
func (s *Session) SetOnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// LoadHistory replaces the message log with the one-shot REST backfill.
// Called once on mount; not re-fetched on reconnect.
func (s *Session) LoadHistory(ctx context.Context) error {
	messages, err := s.history.ChatMessages(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch chat history: %w", err)
	}
	s.mu.Lock()
	s.messages = messages
	s.mu.Unlock()
	s.changed()
	return nil
}

// Send pushes the message and a typing-stopped frame, fire-and-forget: the
// message is displayed only when the server echoes it back. When the socket
// is not open the error is returned rather than silently dropping the send.
func (s *Session) Send(body string) error {
	if strings.TrimSpace(body) == "" {
		return ErrEmptyMessage
	}
	if err := s.sender.Send(ChannelName, models.MessageSend{Message: body}); err != nil {
		return err
	}
	if err := s.sender.Send(ChannelName, models.TypingSend{Typing: false}); err != nil {
		s.logger.Debug("typing-stop frame dropped", "error", err)
	}
	return nil
}

// NotifyTyping reports the local typing state. No sender-side debounce.
func (s *Session) NotifyTyping(isTyping bool) error {
	return s.sender.Send(ChannelName, models.TypingSend{Typing: isTyping})
}

// HandleFrame is the single inbound dispatch point. Typing frames are
// exclusive; one non-typing frame may carry a message, the roster and the
// count together, and every matching update is applied. Malformed frames
// are dropped and the session stays usable.
func (s *Session) HandleFrame(raw []byte) {
	var frame models.ChatFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.logger.Debug("dropping malformed chat frame", "error", err)
		return
	}

	if frame.Type == "typing" {
		s.handleTyping(frame)
		return
	}

	changed := false
	s.mu.Lock()
	if frame.Body() != "" {
		msg := models.ChatMessage{
			ID:        frame.ID,
			User:      frame.User,
			Content:   frame.Body(),
			Timestamp: frame.Timestamp,
		}
		if !s.containsLocked(msg) {
			s.messages = append(s.messages, msg)
			changed = true
		}
	}
	if frame.OnlineUsers != nil {
		s.onlineUsers = append([]string(nil), (*frame.OnlineUsers)...)
		changed = true
	}
	if frame.OnlineCount != nil {
		s.onlineCount = *frame.OnlineCount
		changed = true
	}
	s.mu.Unlock()

	if changed {
		s.changed()
	}
}

// handleTyping tracks at most one typing user, last writer wins, and clears
// it after the quiet period with no renewed signal.
func (s *Session) handleTyping(frame models.ChatFrame) {
	if !frame.Typing || frame.User == s.self {
		return
	}
	s.mu.Lock()
	s.typingUser = frame.User
	if s.typingTimer != nil {
		s.typingTimer.Stop()
	}
	s.typingGen++
	gen := s.typingGen
	s.typingTimer = time.AfterFunc(s.typingTimeout, func() { s.clearTyping(gen) })
	s.mu.Unlock()
	s.changed()
}

// clearTyping expires the indicator, unless a renewal superseded the timer
// that fired. A stopped timer can still fire concurrently with the renewal;
// the generation check makes that firing a no-op.
func (s *Session) clearTyping(gen uint64) {
	s.mu.Lock()
	if gen != s.typingGen {
		s.mu.Unlock()
		return
	}
	cleared := s.typingUser != ""
	s.typingUser = ""
	s.mu.Unlock()
	if cleared {
		s.changed()
	}
}

// containsLocked implements the duplicate check: identity on id when both
// sides carry one, else the (user, body, timestamp) tuple. A genuine
// same-second collision of identical text from the same user is merged;
// that ambiguity is inherited from the protocol, which offers nothing
// stronger to compare.
func (s *Session) containsLocked(msg models.ChatMessage) bool {
	for _, m := range s.messages {
		if m.ID != nil && msg.ID != nil && *m.ID == *msg.ID {
			return true
		}
		if m.User == msg.User && m.Content == msg.Content && m.Timestamp == msg.Timestamp {
			return true
		}
	}
	return false
}

// Stop cancels the typing expiry timer. Called on unmount.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	s.typingGen++
	s.typingUser = ""
}

func (s *Session) Messages() []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// TypingUser reports who is typing, if anyone.
func (s *Session) TypingUser() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.typingUser, s.typingUser != ""
}

// OnlineUsers is exactly the most recent roster frame, never an
// accumulation.
func (s *Session) OnlineUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.onlineUsers))
	copy(out, s.onlineUsers)
	return out
}

func (s *Session) OnlineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.onlineCount
}

func (s *Session) changed() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
