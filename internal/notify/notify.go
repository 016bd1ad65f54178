// Package notify surfaces transient user-visible messages. Notices are
// fire-and-forget: no sink reports failure back to the caller.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Level is the severity of a notice.
type Level string

const (
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

// Notifier receives notices.
type Notifier interface {
	Error(ctx context.Context, msg string)
	Success(ctx context.Context, msg string)
}

// Log writes notices to a structured logger.
type Log struct {
	Logger *slog.Logger
}

func (l Log) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

func (l Log) Error(ctx context.Context, msg string) {
	l.logger().ErrorContext(ctx, "notice", slog.String("level", string(LevelError)), slog.String("message", msg))
}

func (l Log) Success(ctx context.Context, msg string) {
	l.logger().InfoContext(ctx, "notice", slog.String("level", string(LevelSuccess)), slog.String("message", msg))
}

// Multi fans a notice out to every notifier.
type Multi []Notifier

func (m Multi) Error(ctx context.Context, msg string) {
	for _, n := range m {
		n.Error(ctx, msg)
	}
}

func (m Multi) Success(ctx context.Context, msg string) {
	for _, n := range m {
		n.Success(ctx, msg)
	}
}

// Notice is one captured message.
type Notice struct {
	Level   Level
	Message string
}

// Recorder keeps every notice it receives.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Error(ctx context.Context, msg string) {
	r.add(LevelError, msg)
}

func (r *Recorder) Success(ctx context.Context, msg string) {
	r.add(LevelSuccess, msg)
}

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Level: level, Message: msg})
}

// Notices returns a copy of the captured notices in arrival order.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Errors returns the messages of the captured error notices.
func (r *Recorder) Errors() []string {
	var out []string
	for _, n := range r.Notices() {
		if n.Level == LevelError {
			out = append(out, n.Message)
		}
	}
	return out
}
