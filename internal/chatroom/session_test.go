package chatroom

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aflah-pp/NarrativeNexus/internal/models"
)

type fakeHistory struct {
	messages []models.ChatMessage
	err      error
}

func (f *fakeHistory) ChatMessages(_ context.Context) ([]models.ChatMessage, error) {
	return f.messages, f.err
}

type fakeSender struct {
	mu   sync.Mutex
	sent []any
	err  error
}

func (f *fakeSender) Send(_ string, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, v)
	return nil
}

func (f *fakeSender) frames() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]any, len(f.sent))
	copy(out, f.sent)
	return out
}

func int64p(v int64) *int64 { return &v }

func testSession(history *fakeHistory, sender *fakeSender, self string, timeout time.Duration) *Session {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(history, sender, self, timeout, logger)
}

func TestSession_LoadHistory(t *testing.T) {
	history := &fakeHistory{messages: []models.ChatMessage{
		{ID: int64p(1), User: "alice", Content: "hi", Timestamp: "10:00"},
		{ID: int64p(2), User: "bob", Content: "hello", Timestamp: "10:01"},
	}}
	s := testSession(history, &fakeSender{}, "me", time.Second)

	if err := s.LoadHistory(context.Background()); err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if got := s.Messages(); len(got) != 2 {
		t.Errorf("expected 2 messages, got %d", len(got))
	}
}

func TestSession_LoadHistoryError(t *testing.T) {
	history := &fakeHistory{err: errors.New("server down")}
	s := testSession(history, &fakeSender{}, "me", time.Second)

	if err := s.LoadHistory(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
	if got := s.Messages(); len(got) != 0 {
		t.Errorf("a failed backfill must not leave partial state, got %d messages", len(got))
	}
}

func TestSession_DedupeByID(t *testing.T) {
	history := &fakeHistory{messages: []models.ChatMessage{
		{ID: int64p(1), User: "alice", Content: "hi", Timestamp: "10:00"},
	}}
	s := testSession(history, &fakeSender{}, "me", time.Second)
	if err := s.LoadHistory(context.Background()); err != nil {
		t.Fatal(err)
	}

	// The server echoes a message already present in the backfill.
	s.HandleFrame([]byte(`{"id":1,"user":"alice","content":"hi","timestamp":"10:00"}`))
	if got := s.Messages(); len(got) != 1 {
		t.Errorf("duplicate echo must be merged, got %d messages", len(got))
	}

	s.HandleFrame([]byte(`{"id":2,"user":"alice","content":"again","timestamp":"10:02"}`))
	if got := s.Messages(); len(got) != 2 {
		t.Errorf("distinct id must append, got %d messages", len(got))
	}
}

func TestSession_DedupeByTuple(t *testing.T) {
	s := testSession(&fakeHistory{}, &fakeSender{}, "me", time.Second)

	frame := []byte(`{"message":"hello","user":"bob","timestamp":"10:05"}`)
	s.HandleFrame(frame)
	s.HandleFrame(frame)
	if got := s.Messages(); len(got) != 1 {
		t.Errorf("identical id-less frames must dedupe on (user, content, timestamp), got %d", len(got))
	}

	s.HandleFrame([]byte(`{"message":"hello","user":"bob","timestamp":"10:06"}`))
	if got := s.Messages(); len(got) != 2 {
		t.Errorf("different timestamp is a different message, got %d", len(got))
	}
}

func TestSession_ContentPreferredOverMessage(t *testing.T) {
	s := testSession(&fakeHistory{}, &fakeSender{}, "me", time.Second)

	s.HandleFrame([]byte(`{"message":"raw","content":"rendered","user":"bob","timestamp":"10:05"}`))
	got := s.Messages()
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	if got[0].Content != "rendered" {
		t.Errorf("content field wins over message, got %q", got[0].Content)
	}
}

func TestSession_CombinedFrameAppliesEverything(t *testing.T) {
	s := testSession(&fakeHistory{}, &fakeSender{}, "me", time.Second)

	s.HandleFrame([]byte(`{"message":"hi","user":"bob","timestamp":"10:00","online_users":["alice","bob"],"online_count":2}`))

	if got := s.Messages(); len(got) != 1 {
		t.Errorf("expected the message applied, got %d", len(got))
	}
	if got := s.OnlineUsers(); len(got) != 2 {
		t.Errorf("expected the roster applied, got %v", got)
	}
	if got := s.OnlineCount(); got != 2 {
		t.Errorf("expected the count applied, got %d", got)
	}
}

func TestSession_PresenceReplacedWholesale(t *testing.T) {
	s := testSession(&fakeHistory{}, &fakeSender{}, "me", time.Second)

	s.HandleFrame([]byte(`{"online_users":["alice","bob","carol"],"online_count":3}`))
	s.HandleFrame([]byte(`{"online_users":["alice"],"online_count":1}`))

	got := s.OnlineUsers()
	if len(got) != 1 || got[0] != "alice" {
		t.Errorf("roster must be the latest frame, not an accumulation: %v", got)
	}
	if s.OnlineCount() != 1 {
		t.Errorf("expected count 1, got %d", s.OnlineCount())
	}

	// A zero count is still a presence update.
	s.HandleFrame([]byte(`{"online_users":[],"online_count":0}`))
	if len(s.OnlineUsers()) != 0 || s.OnlineCount() != 0 {
		t.Errorf("empty roster frame must clear presence, got %v / %d", s.OnlineUsers(), s.OnlineCount())
	}
}

func TestSession_PresenceAbsentFieldsUntouched(t *testing.T) {
	s := testSession(&fakeHistory{}, &fakeSender{}, "me", time.Second)

	s.HandleFrame([]byte(`{"online_users":["alice","bob"],"online_count":2}`))
	s.HandleFrame([]byte(`{"message":"hi","user":"bob","timestamp":"10:00"}`))

	if got := s.OnlineUsers(); len(got) != 2 {
		t.Errorf("a message-only frame must not clobber presence, got %v", got)
	}
}

func TestSession_Typing(t *testing.T) {
	s := testSession(&fakeHistory{}, &fakeSender{}, "me", 30*time.Millisecond)

	s.HandleFrame([]byte(`{"type":"typing","typing":true,"user":"alice"}`))
	if user, ok := s.TypingUser(); !ok || user != "alice" {
		t.Fatalf("expected alice typing, got %q ok=%v", user, ok)
	}

	// Last writer wins.
	s.HandleFrame([]byte(`{"type":"typing","typing":true,"user":"bob"}`))
	if user, _ := s.TypingUser(); user != "bob" {
		t.Errorf("expected bob to replace alice, got %q", user)
	}

	// Expires after the quiet period without a renewed signal.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := s.TypingUser(); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("typing indicator never expired")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSession_TypingRenewalResetsExpiry(t *testing.T) {
	s := testSession(&fakeHistory{}, &fakeSender{}, "me", 60*time.Millisecond)

	s.HandleFrame([]byte(`{"type":"typing","typing":true,"user":"alice"}`))
	time.Sleep(40 * time.Millisecond)
	s.HandleFrame([]byte(`{"type":"typing","typing":true,"user":"alice"}`))
	time.Sleep(40 * time.Millisecond)

	if user, ok := s.TypingUser(); !ok || user != "alice" {
		t.Errorf("renewed signal must reset the expiry window, got %q ok=%v", user, ok)
	}
}

func TestSession_StaleExpiryIgnoredAfterRenewal(t *testing.T) {
	s := testSession(&fakeHistory{}, &fakeSender{}, "me", time.Hour)

	s.HandleFrame([]byte(`{"type":"typing","typing":true,"user":"alice"}`))
	firstGen := s.typingGen
	s.HandleFrame([]byte(`{"type":"typing","typing":true,"user":"bob"}`))

	// The first timer firing late, concurrently with the renewal, must not
	// wipe the renewed indicator.
	s.clearTyping(firstGen)
	if user, ok := s.TypingUser(); !ok || user != "bob" {
		t.Errorf("stale expiry must be a no-op, got %q ok=%v", user, ok)
	}

	s.clearTyping(s.typingGen)
	if _, ok := s.TypingUser(); ok {
		t.Error("the current expiry must still clear the indicator")
	}
}

func TestSession_StaleExpiryIgnoredAfterStop(t *testing.T) {
	s := testSession(&fakeHistory{}, &fakeSender{}, "me", time.Hour)

	s.HandleFrame([]byte(`{"type":"typing","typing":true,"user":"alice"}`))
	gen := s.typingGen
	s.Stop()

	fired := false
	s.SetOnChange(func() { fired = true })
	s.clearTyping(gen)
	if fired {
		t.Error("an expiry firing after Stop must not signal a change")
	}
}

func TestSession_TypingIgnoresSelfAndStop(t *testing.T) {
	s := testSession(&fakeHistory{}, &fakeSender{}, "me", time.Second)

	s.HandleFrame([]byte(`{"type":"typing","typing":true,"user":"me"}`))
	if _, ok := s.TypingUser(); ok {
		t.Error("own typing frames must be ignored")
	}

	s.HandleFrame([]byte(`{"type":"typing","typing":false,"user":"alice"}`))
	if _, ok := s.TypingUser(); ok {
		t.Error("typing=false frames must not set an indicator")
	}
}

func TestSession_TypingFrameIsExclusive(t *testing.T) {
	s := testSession(&fakeHistory{}, &fakeSender{}, "me", time.Second)

	// A typing frame never contributes to the message log even if it
	// carries stray fields.
	s.HandleFrame([]byte(`{"type":"typing","typing":true,"user":"alice","message":"sneaky"}`))
	if got := s.Messages(); len(got) != 0 {
		t.Errorf("typing frames are exclusive, got %d messages", len(got))
	}
}

func TestSession_MalformedFrameDropped(t *testing.T) {
	s := testSession(&fakeHistory{}, &fakeSender{}, "me", time.Second)

	s.HandleFrame([]byte(`{not json`))
	s.HandleFrame([]byte(`{"message":"hi","user":"bob","timestamp":"10:00"}`))

	if got := s.Messages(); len(got) != 1 {
		t.Errorf("session must stay usable after a malformed frame, got %d messages", len(got))
	}
}

func TestSession_Send(t *testing.T) {
	sender := &fakeSender{}
	s := testSession(&fakeHistory{}, sender, "me", time.Second)

	if err := s.Send("hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	frames := sender.frames()
	if len(frames) != 2 {
		t.Fatalf("expected message + typing-stop, got %d frames", len(frames))
	}
	if msg, ok := frames[0].(models.MessageSend); !ok || msg.Message != "hello" {
		t.Errorf("expected message frame first, got %#v", frames[0])
	}
	if typing, ok := frames[1].(models.TypingSend); !ok || typing.Typing {
		t.Errorf("expected typing-stopped frame second, got %#v", frames[1])
	}

	// Fire-and-forget: nothing is appended locally until the echo.
	if got := s.Messages(); len(got) != 0 {
		t.Errorf("send must not append locally, got %d messages", len(got))
	}
}

func TestSession_SendEmpty(t *testing.T) {
	sender := &fakeSender{}
	s := testSession(&fakeHistory{}, sender, "me", time.Second)

	if err := s.Send("   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
	if len(sender.frames()) != 0 {
		t.Error("an empty message must not reach the socket")
	}
}

func TestSession_SendClosedSocket(t *testing.T) {
	sendErr := errors.New("channel is not open")
	sender := &fakeSender{err: sendErr}
	s := testSession(&fakeHistory{}, sender, "me", time.Second)

	if err := s.Send("hello"); !errors.Is(err, sendErr) {
		t.Errorf("a failed send must surface, got %v", err)
	}
}

func TestSession_OnChange(t *testing.T) {
	s := testSession(&fakeHistory{}, &fakeSender{}, "me", time.Second)

	var mu sync.Mutex
	fired := 0
	s.SetOnChange(func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})

	s.HandleFrame([]byte(`{"message":"hi","user":"bob","timestamp":"10:00"}`))
	s.HandleFrame([]byte(`{"message":"hi","user":"bob","timestamp":"10:00"}`)) // duplicate, no change

	mu.Lock()
	defer mu.Unlock()
	if fired != 1 {
		t.Errorf("expected 1 change callback, got %d", fired)
	}
}

func TestSession_Stop(t *testing.T) {
	s := testSession(&fakeHistory{}, &fakeSender{}, "me", time.Hour)

	s.HandleFrame([]byte(`{"type":"typing","typing":true,"user":"alice"}`))
	s.Stop()

	if _, ok := s.TypingUser(); ok {
		t.Error("Stop must clear the typing indicator")
	}
}
