package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aep/videolib/api"
	"github.com/aep/videolib/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastForwarder(b bus.Bus, url string) *Forwarder {
	f := New(b, url)
	f.initialBackoff = time.Millisecond
	return f
}

func TestDeliverRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, api.EventVideoCreated, r.Header.Get(EventHeader))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	f := fastForwarder(nil, srv.URL)
	require.NoError(t, f.Deliver(context.Background(), api.EventVideoCreated, []byte(`{}`)))
	assert.Equal(t, int32(3), calls.Load())
}

func TestDeliverGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := fastForwarder(nil, srv.URL)
	err := f.Deliver(context.Background(), api.EventVideoDeleted, []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "5 attempts")
	assert.Equal(t, int32(5), calls.Load())
}

func TestDeliverCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := New(nil, srv.URL)
	f.initialBackoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := f.Deliver(ctx, api.EventVideoUpdated, []byte(`{}`))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunForwardsBusEvents(t *testing.T) {
	got := make(chan string, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- r.Header.Get(EventHeader) + " " + string(body)
	}))
	defer srv.Close()

	b, err := bus.NewSolo()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := fastForwarder(b, srv.URL)

	done := make(chan struct{})
	go func() {
		f.Run(ctx)
		close(done)
	}()

	// solo receivers share one buffered channel per topic, so the message
	// waits there even if Run has not subscribed yet
	b.Recv(api.EventVideoDeleted)
	require.NoError(t, b.Send(api.EventVideoDeleted, []byte(`{"id":"v-001"}`)))

	select {
	case m := <-got:
		assert.Equal(t, `video.deleted {"id":"v-001"}`, m)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not called")
	}

	b.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the bus closed")
	}
}
