package notify

import (
	"sync"
	"time"

	"github.com/xavierca1/leadflow/internal/usecase"
	"go.uber.org/zap"
)

// Feed keeps the most recent notifications in a fixed-size ring.
type Feed struct {
	mu    sync.Mutex
	items []usecase.Notification
	next  int
	full  bool
	now   func() time.Time
}

func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 100
	}
	return &Feed{items: make([]usecase.Notification, size), now: time.Now}
}

func (f *Feed) Notify(n usecase.Notification) {
	if n.At.IsZero() {
		n.At = f.now().UTC()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[f.next] = n
	f.next = (f.next + 1) % len(f.items)
	if f.next == 0 {
		f.full = true
	}
}

// Recent returns up to n notifications, newest first. n <= 0 returns all.
func (f *Feed) Recent(n int) []usecase.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := f.next
	if f.full {
		count = len(f.items)
	}
	if n <= 0 || n > count {
		n = count
	}
	out := make([]usecase.Notification, 0, n)
	for i := 1; i <= n; i++ {
		idx := (f.next - i + len(f.items)) % len(f.items)
		out = append(out, f.items[idx])
	}
	return out
}

// Logger writes notifications to the structured log.
type Logger struct {
	L *zap.Logger
}

func (l Logger) Notify(n usecase.Notification) {
	fields := []zap.Field{zap.String("title", n.Title), zap.String("message", n.Message)}
	if n.LeadID != "" {
		fields = append(fields, zap.String("lead_id", n.LeadID))
	}
	switch n.Level {
	case usecase.NotifyError:
		l.L.Error("notification", fields...)
	case usecase.NotifyWarning:
		l.L.Warn("notification", fields...)
	default:
		l.L.Info("notification", fields...)
	}
}

// Multi fans a notification out to every notifier in order.
type Multi []usecase.Notifier

func (m Multi) Notify(n usecase.Notification) {
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}
	for _, target := range m {
		if target != nil {
			target.Notify(n)
		}
	}
}

// Func adapts a function to usecase.Notifier.
type Func func(usecase.Notification)

func (f Func) Notify(n usecase.Notification) { f(n) }
