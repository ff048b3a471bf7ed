// Package webhook forwards video events from the bus to an http endpoint.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/aep/videolib/api"
	"github.com/aep/videolib/bus"
	"github.com/lmittmann/tint"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var log = slog.New(tint.NewHandler(os.Stderr, nil))

var Topics = []string{
	api.EventVideoCreated,
	api.EventVideoUpdated,
	api.EventVideoDeleted,
}

const EventHeader = "X-Videolib-Event"

type Forwarder struct {
	url    string
	bus    bus.Bus
	client *http.Client

	maxAttempts    int
	initialBackoff time.Duration
}

func New(b bus.Bus, url string) *Forwarder {
	return &Forwarder{
		url: url,
		bus: b,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   5 * time.Second,
		},
		maxAttempts:    5,
		initialBackoff: 100 * time.Millisecond,
	}
}

// Run forwards events until ctx is done or the bus is closed.
func (f *Forwarder) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, topic := range Topics {
		ch := f.bus.Recv(topic)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case payload, ok := <-ch:
					if !ok {
						return
					}
					if err := f.Deliver(ctx, topic, payload); err != nil {
						log.Error("webhook delivery failed", "url", f.url, "topic", topic, "err", err)
					}
				}
			}
		}()
	}
	wg.Wait()
}

// Deliver POSTs one event, retrying with doubling backoff until a 2xx response.
func (f *Forwarder) Deliver(ctx context.Context, topic string, payload []byte) error {
	backoff := f.initialBackoff

	var err error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		err = f.post(ctx, topic, payload)
		if err == nil {
			return nil
		}

		log.Warn("webhook attempt failed", "url", f.url, "topic", topic, "attempt", attempt, "err", err)
		if attempt == f.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("request failed after %d attempts: %w", f.maxAttempts, err)
}

func (f *Forwarder) post(ctx context.Context, topic string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventHeader, topic)

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook responded with status %d %s", resp.StatusCode, resp.Status)
	}
	return nil
}
