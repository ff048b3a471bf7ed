package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aep/videolib/api"
	"github.com/google/renameio/v2"
	"github.com/pkg/errors"
)

// document is the on-disk layout of the file store.
type document struct {
	Videos []api.Video `json:"videos"`
}

// File keeps all videos in a single JSON document that is rewritten on every save.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string {
	return f.path
}

func (f *File) LoadAll(ctx context.Context) ([]api.Video, error) {
	_, span := tracer.Start(ctx, "kv.File.LoadAll")
	defer span.End()

	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("[file].LoadAll: no data file yet", "path", f.path)
			return []api.Video{}, nil
		}
		return nil, errors.Wrapf(err, "read %s", f.path)
	}

	if len(bytes.TrimSpace(b)) == 0 {
		return []api.Video{}, nil
	}

	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrapf(err, "parse %s", f.path)
	}
	if doc.Videos == nil {
		doc.Videos = []api.Video{}
	}
	for i := range doc.Videos {
		if doc.Videos[i].Tags == nil {
			doc.Videos[i].Tags = []string{}
		}
	}
	return doc.Videos, nil
}

func (f *File) SaveAll(ctx context.Context, videos []api.Video) error {
	_, span := tracer.Start(ctx, "kv.File.SaveAll")
	defer span.End()

	if videos == nil {
		videos = []api.Video{}
	}
	b, err := json.MarshalIndent(document{Videos: videos}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode videos")
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return errors.Wrapf(err, "create data directory for %s", f.path)
	}

	pending, err := renameio.NewPendingFile(f.path, renameio.WithPermissions(0o644))
	if err != nil {
		return errors.Wrapf(err, "create pending file for %s", f.path)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			log.Debug("[file].SaveAll: cleanup pending file", "path", f.path, "err", err)
		}
	}()

	if _, err := pending.Write(b); err != nil {
		return errors.Wrapf(err, "write %s", f.path)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return errors.Wrapf(err, "replace %s", f.path)
	}

	log.Debug("[file].SaveAll:", "path", f.path, "videos", len(videos))
	return nil
}

// Ping checks that the data directory is reachable.
func (f *File) Ping() error {
	_, err := os.Stat(filepath.Dir(f.path))
	if err != nil {
		return errors.Wrap(err, "stat data directory")
	}
	return nil
}

func (f *File) Close() {}
