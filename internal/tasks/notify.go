package tasks

import (
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// User-facing notification messages.
const (
	MessageRetryLater     = "Something went wrong. Please try again later."
	MessageSessionExpired = "Your session has expired. Please log in again."
	MessageLoginRequired  = "Please log in first."
)

// Level is the severity of a [Notification].
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelError:
		return "error"
	default:
		return ""
	}
}

// Notification is a short message meant for the user.
//
// Err carries the underlying failure for callers that want to inspect it; it is never shown as is.
type Notification struct {
	Level   Level
	Message string
	Err     error
}

// Notifier receives notifications from a [Synchronizer]. Notify must not block.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}

// ChannelNotifier delivers notifications on a buffered channel.
//
// When the buffer is full the notification is dropped and counted.
type ChannelNotifier struct {
	ch      chan Notification
	dropped atomic.Int64
}

// NewChannelNotifier creates a ChannelNotifier with a buffer of size (minimum 1).
func NewChannelNotifier(size int) *ChannelNotifier {
	if size < 1 {
		size = 1
	}
	return &ChannelNotifier{ch: make(chan Notification, size)}
}

// C returns the receive side of the channel.
func (c *ChannelNotifier) C() <-chan Notification {
	return c.ch
}

func (c *ChannelNotifier) Notify(n Notification) {
	select {
	case c.ch <- n:
	default:
		c.dropped.Add(1)
	}
}

// Dropped returns how many notifications were discarded because the buffer was full.
func (c *ChannelNotifier) Dropped() int64 {
	return c.dropped.Load()
}

// LogNotifier writes notifications to a logger: errors at warn level, everything else at info.
type LogNotifier struct {
	Logger *log.Logger
}

func (l LogNotifier) Notify(n Notification) {
	if l.Logger == nil {
		return
	}
	if n.Level == LevelError {
		l.Logger.Warn(n.Message)
		return
	}
	l.Logger.Info(n.Message)
}
