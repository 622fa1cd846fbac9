package ui

import (
	"strings"
	"testing"

	"github.com/aflah-pp/NarrativeNexus/internal/models"
	"github.com/aflah-pp/NarrativeNexus/internal/realtime"
)

func TestChatView_RosterUsesDirectoryNames(t *testing.T) {
	m := newChatModel()
	m.online = []string{"alice", "bob"}
	m.names = map[string]string{"alice": "Alice Stone"}
	m.count = 2

	out := m.view(realtime.StateOpen, "me")
	if !strings.Contains(out, "Alice Stone") {
		t.Errorf("resolved roster entry must show its display name, got %q", out)
	}
	if !strings.Contains(out, "bob") {
		t.Errorf("unresolved roster entry must fall back to the username, got %q", out)
	}
}

func TestChatView_DisconnectedIndicator(t *testing.T) {
	m := newChatModel()

	if out := m.view(realtime.StateErrored, "me"); !strings.Contains(out, "errored") {
		t.Errorf("a non-open channel must be visible in the header, got %q", out)
	}
	if out := m.view(realtime.StateOpen, "me"); strings.Contains(out, "errored") {
		t.Errorf("an open channel must not show a failure state, got %q", out)
	}
}

func TestNotificationsView_UnreadBulletKeepsCursor(t *testing.T) {
	m := notifModel{items: []models.Notification{
		{ID: 1, Message: "alice followed you", IsRead: false},
		{ID: 2, Message: "bob liked your story", IsRead: true},
	}}

	var line string
	for _, l := range strings.Split(m.view(), "\n") {
		if strings.Contains(l, "alice followed you") {
			line = l
			break
		}
	}
	if !strings.Contains(line, "> ") {
		t.Errorf("cursor marker must survive on an unread item, got %q", line)
	}
	if !strings.Contains(line, "●") {
		t.Errorf("unread item must carry the bullet, got %q", line)
	}
}
