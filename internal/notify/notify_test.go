package notify

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notefiler/internal/sse"
)

type recorder struct{ events []Event }

func (r *recorder) Notify(_ context.Context, ev Event) { r.events = append(r.events, ev) }

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, nil, b, Nop{}}
	m.Notify(context.Background(), Event{Status: StatusStored, Path: "x.md"})

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	n := Log{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	n.Notify(context.Background(), Event{Status: StatusStored, NoteID: "id1", Path: "a/b.md"})
	n.Notify(context.Background(), Event{Status: StatusFailed, Reason: "classification unavailable"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"msg":"note stored"`)
	assert.Contains(t, lines[0], `"path":"a/b.md"`)
	assert.Contains(t, lines[1], `"level":"WARN"`)
	assert.Contains(t, lines[1], `"reason":"classification unavailable"`)
}

func TestBroker(t *testing.T) {
	b := sse.NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	Broker{B: b}.Notify(context.Background(), Event{Status: StatusFailed, Reason: "storage unavailable"})

	select {
	case msg := <-ch:
		assert.Contains(t, string(msg), "event: note.failed")
		assert.Contains(t, string(msg), `"reason":"storage unavailable"`)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	Broker{}.Notify(context.Background(), Event{Status: StatusStored})
}
