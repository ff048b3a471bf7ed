package kv

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/aep/videolib/api"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/pkg/errors"
)

// videos live under v\xff<position>, position is the big-endian index in the set
var (
	videoPrefix = []byte{'v', 0xff}
	videoEnd    = []byte{'v' + 1}
)

func videoKey(pos uint64) []byte {
	key := make([]byte, 0, len(videoPrefix)+8)
	key = append(key, videoPrefix...)
	return binary.BigEndian.AppendUint64(key, pos)
}

type Pebbledb struct {
	db *pebble.DB

	// SaveAll is delete-range + rewrite, concurrent savers would interleave
	writeLock sync.Mutex

	// read by Ping from the health endpoints while Close runs on shutdown
	closed atomic.Bool
}

func (p *Pebbledb) LoadAll(ctx context.Context) ([]api.Video, error) {
	_, span := tracer.Start(ctx, "kv.Pebbledb.LoadAll")
	defer span.End()

	snapshot := p.db.NewSnapshot()
	defer snapshot.Close()

	it, err := snapshot.NewIter(&pebble.IterOptions{
		LowerBound: videoPrefix,
		UpperBound: videoEnd,
	})
	if err != nil {
		return nil, errors.Wrap(err, "pebble iter")
	}
	defer it.Close()

	videos := []api.Video{}
	for it.First(); it.Valid(); it.Next() {
		var v api.Video
		if err := json.Unmarshal(it.Value(), &v); err != nil {
			return nil, errors.Wrapf(err, "decode video at key %x", it.Key())
		}
		if v.Tags == nil {
			v.Tags = []string{}
		}
		videos = append(videos, v)
	}
	if err := it.Error(); err != nil {
		return nil, errors.Wrap(err, "pebble iter")
	}

	log.Debug("[pebble].LoadAll:", "videos", len(videos))
	return videos, nil
}

func (p *Pebbledb) SaveAll(ctx context.Context, videos []api.Video) error {
	_, span := tracer.Start(ctx, "kv.Pebbledb.SaveAll")
	defer span.End()

	p.writeLock.Lock()
	defer p.writeLock.Unlock()

	batch := p.db.NewBatch()
	defer batch.Close()

	if err := batch.DeleteRange(videoPrefix, videoEnd, nil); err != nil {
		return errors.Wrap(err, "pebble delete range")
	}

	for i, v := range videos {
		b, err := json.Marshal(v)
		if err != nil {
			return errors.Wrapf(err, "encode video %s", v.Id)
		}
		if err := batch.Set(videoKey(uint64(i)), b, nil); err != nil {
			return errors.Wrapf(err, "pebble set %s", v.Id)
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "pebble commit")
	}

	log.Debug("[pebble].SaveAll:", "videos", len(videos))
	return nil
}

func (p *Pebbledb) Ping() error {
	if p.closed.Load() {
		return errors.New("pebble is closed")
	}
	return nil
}

func (p *Pebbledb) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	p.db.Close()
}

func NewPebble(dir string) (Store, error) {
	if dir == "" {
		dir = "pebble-db"
	}

	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open pebble at %s", dir)
	}

	return &Pebbledb{db: db}, nil
}

// NewMemPebble creates an in-memory Pebble store for testing.
func NewMemPebble() (Store, error) {
	opts := &pebble.Options{
		FS: vfs.NewMem(),
	}

	db, err := pebble.Open("", opts)
	if err != nil {
		return nil, err
	}

	return &Pebbledb{db: db}, nil
}
