package quote

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Observer is told about every calculated quote.
type Observer interface {
	QuoteCalculated(ctx context.Context, r Result)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, r Result)

func (f ObserverFunc) QuoteCalculated(ctx context.Context, r Result) { f(ctx, r) }

// Level classifies a Notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a short, transient message meant for the user.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Collector is a Notifier that keeps notifications for later rendering.
type Collector struct {
	mu    sync.Mutex
	items []Notification
}

func (c *Collector) Notify(_ context.Context, n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
}

// Notifications returns what was collected so far.
func (c *Collector) Notifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.items...)
}

// First returns the first message of the given level, or "".
func (c *Collector) First(level Level) string {
	for _, n := range c.Notifications() {
		if n.Level == level {
			return n.Message
		}
	}
	return ""
}

// Messages returns every message of the given level in arrival order.
func (c *Collector) Messages(level Level) []string {
	var out []string
	for _, n := range c.Notifications() {
		if n.Level == level {
			out = append(out, n.Message)
		}
	}
	return out
}

type notifierKey struct{}

// WithNotifier attaches a request-scoped notifier to ctx. It takes precedence over the
// service's default notifier.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, notifierKey{}, n)
}

func notifierFrom(ctx context.Context) Notifier {
	n, _ := ctx.Value(notifierKey{}).(Notifier)
	return n
}

// LogObserver logs every calculation at debug level.
type LogObserver struct {
	Logger *zap.Logger
}

func (o LogObserver) QuoteCalculated(_ context.Context, r Result) {
	machine := ""
	if r.Input.Machine != nil {
		machine = r.Input.Machine.ID
	}
	o.Logger.Debug("quote_calculated",
		zap.String("machine", machine),
		zap.Int("quantity", r.Breakdown.Quantity),
		zap.String("grand_total_local", r.Breakdown.GrandTotalLocal.String()),
		zap.String("exchange_rate", r.Breakdown.ExchangeRate.String()),
	)
}

// LogNotifier logs notifications; it is the default when nothing else is attached.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) Notify(_ context.Context, note Notification) {
	switch note.Level {
	case LevelError:
		n.Logger.Warn("notification", zap.String("level", string(note.Level)), zap.String("message", note.Message))
	default:
		n.Logger.Info("notification", zap.String("level", string(note.Level)), zap.String("message", note.Message))
	}
}
