// Package notify delivers fire-and-forget success and failure signals for
// filing operations.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/notefiler/internal/sse"
)

// Status of a filing operation.
type Status string

const (
	StatusStored Status = "stored"
	StatusFailed Status = "failed"
)

// Event describes the outcome of one filing operation.
type Event struct {
	Status   Status    `json:"status"`
	NoteID   string    `json:"note_id,omitempty"`
	Title    string    `json:"title,omitempty"`
	Category string    `json:"category,omitempty"`
	Path     string    `json:"path,omitempty"`
	Appended bool      `json:"appended,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
}

// Notifier receives filing outcomes. Notify must not block and has no
// influence on the operation it reports.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}

// Log writes events to a logger.
type Log struct {
	Logger *slog.Logger
}

func (n Log) Notify(ctx context.Context, ev Event) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if ev.Status == StatusFailed {
		logger.WarnContext(ctx, "note not stored",
			slog.String("reason", ev.Reason),
			slog.String("title", ev.Title))
		return
	}
	logger.InfoContext(ctx, "note stored",
		slog.String("note_id", ev.NoteID),
		slog.String("path", ev.Path),
		slog.Bool("appended", ev.Appended))
}

// Broker publishes events to SSE clients.
type Broker struct {
	B *sse.Broker
}

func (n Broker) Notify(_ context.Context, ev Event) {
	if n.B == nil {
		return
	}
	typ := sse.TypeNoteStored
	if ev.Status == StatusFailed {
		typ = sse.TypeNoteFailed
	}
	n.B.Publish(sse.Event{Type: typ, Data: ev})
}

// Multi fans an event out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, ev)
		}
	}
}
