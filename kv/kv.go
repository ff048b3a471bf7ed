package kv

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aep/videolib/api"
	"github.com/lmittmann/tint"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer

func init() {
	tracer = otel.Tracer("github.com/aep/videolib/kv")
}

var log = slog.New(tint.NewHandler(os.Stderr, nil))

// Store persists the whole video set. SaveAll replaces everything previously stored.
type Store interface {
	LoadAll(ctx context.Context) ([]api.Video, error)
	SaveAll(ctx context.Context, videos []api.Video) error
	Ping() error
	Close()
}

// Open returns the store named by kind ("file" or "pebble").
func Open(kind string, path string) (Store, error) {
	switch kind {
	case "", "file":
		return NewFile(path), nil
	case "pebble":
		return NewPebble(path)
	}
	return nil, errUnknownStore(kind)
}

func errUnknownStore(kind string) error {
	return fmt.Errorf("unknown store %q, expected file or pebble", kind)
}
