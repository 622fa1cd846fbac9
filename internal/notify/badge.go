package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aflah-pp/NarrativeNexus/internal/models"
)

// ChannelName is the realtime channel this badge consumes.
const ChannelName = "notifications"

// Fetcher is the slice of the API client the badge needs.
type Fetcher interface {
	Notifications(ctx context.Context) (models.NotificationList, error)
	MarkNotificationRead(ctx context.Context, id int64) error
}

// Badge maintains the unread counter and the notification list behind it.
// Socket frames are not interpreted: any frame just means "something
// changed" and triggers a full refetch. Coarse, but correct under message
// loss and cheap at this traffic level.
type Badge struct {
	ctx    context.Context
	api    Fetcher
	logger *slog.Logger

	mu       sync.RWMutex
	unread   int
	items    []models.Notification
	onChange func(unread int)
}

// New builds a badge. ctx bounds the frame-triggered refetches: once it is
// cancelled, inbound frames stop causing network calls.
func New(ctx context.Context, api Fetcher, logger *slog.Logger) *Badge {
	return &Badge{ctx: ctx, api: api, logger: logger}
}

func (b *Badge) SetOnChange(fn func(unread int)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = fn
}

// Refresh refetches the list and replaces the counter wholesale with the
// server's unread_count.
func (b *Badge) Refresh(ctx context.Context) (int, error) {
	list, err := b.api.Notifications(ctx)
	if err != nil {
		return b.Unread(), fmt.Errorf("failed to fetch notifications: %w", err)
	}

	b.mu.Lock()
	b.unread = list.UnreadCount
	b.items = list.Notifications
	b.mu.Unlock()
	b.changed()
	return list.UnreadCount, nil
}

// HandleFrame reacts to any inbound notification-channel frame by
// refetching. The payload is deliberately ignored.
func (b *Badge) HandleFrame([]byte) {
	if b.ctx.Err() != nil {
		return
	}
	if _, err := b.Refresh(b.ctx); err != nil {
		b.logger.Warn("notification refetch failed", "error", err)
	}
}

// OpenList is the open-the-panel flow: refetch so the list is current,
// then zero the counter locally. Order matters, a refetch after the
// acknowledge would restore the server's count and the clear would never
// show.
func (b *Badge) OpenList(ctx context.Context) ([]models.Notification, error) {
	if _, err := b.Refresh(ctx); err != nil {
		return nil, err
	}
	b.AcknowledgeAllRead()
	return b.Items(), nil
}

// AcknowledgeAllRead zeroes the counter locally. It does not touch the
// server's per-item read state; MarkRead does that one item at a time.
func (b *Badge) AcknowledgeAllRead() {
	b.mu.Lock()
	b.unread = 0
	b.mu.Unlock()
	b.changed()
}

// MarkRead flips one notification server-side, then refetches so the badge
// matches the server again.
func (b *Badge) MarkRead(ctx context.Context, id int64) error {
	if err := b.api.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	_, err := b.Refresh(ctx)
	return err
}

func (b *Badge) Unread() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.unread
}

func (b *Badge) Items() []models.Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Notification, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Badge) changed() {
	b.mu.RLock()
	fn := b.onChange
	unread := b.unread
	b.mu.RUnlock()
	if fn != nil {
		fn(unread)
	}
}
