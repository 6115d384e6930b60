package server

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-navigator/internal/events"
)

func TestSSEWriter_WriteEvent(t *testing.T) {
	w := httptest.NewRecorder()
	sse, err := NewSSEWriter(w)
	require.NoError(t, err)

	require.NoError(t, sse.WriteEvent("progress", map[string]string{"stage": "skills"}))
	require.NoError(t, sse.WriteComment("ping"))

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "event: progress\ndata: {\"stage\":\"skills\"}\n\n: ping\n\n", w.Body.String())
}

func TestHub_BroadcastAndUnsubscribe(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe()
	b, cancelB := h.Subscribe()
	require.Equal(t, 2, h.Subscribers())

	h.Broadcast(events.Event{Type: events.TypeProgress, Stage: "upload"})
	assert.Equal(t, "upload", (<-a).Stage)
	assert.Equal(t, "upload", (<-b).Stage)

	cancelA()
	cancelA()
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, h.Subscribers())

	h.Close()
	_, open = <-b
	assert.False(t, open)
	cancelB()
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	for i := 0; i < hubBuffer*2; i++ {
		h.Broadcast(events.Event{Type: events.TypeProgress})
	}
	assert.Len(t, ch, hubBuffer)
}

func TestHub_SubscribeAfterClose(t *testing.T) {
	h := NewHub()
	h.Close()
	ch, cancel := h.Subscribe()
	defer cancel()
	_, open := <-ch
	assert.False(t, open)
}
