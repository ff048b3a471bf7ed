package bus

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/lmittmann/tint"
	natsd "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

var log = slog.New(tint.NewHandler(os.Stderr, nil))

// EventStream keeps a history of every video.* event when JetStream is available.
const EventStream = "videolib-events"

type Nats struct {
	nc *nats.Conn

	m    sync.Mutex
	subs map[string]chan []byte

	embedded *natsd.Server
}

func ConnectNats(url string) (*Nats, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	nc, err := nats.Connect(url, nats.Name("videolib"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Nats{
		nc:   nc,
		subs: make(map[string]chan []byte),
	}, nil
}

// EnsureStream creates the event history stream. It needs a nats-server with -js.
func (n *Nats) EnsureStream() error {
	js, err := n.nc.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create jetstream context: %w", err)
	}

	_, err = js.StreamInfo(EventStream)
	if err == nil {
		return nil
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     EventStream,
		Subjects: []string{"video.>"},
		Storage:  nats.FileStorage,
		Replicas: 1,
		MaxMsgs:  100_000,
		Discard:  nats.DiscardOld,
	})
	if err != nil {
		return fmt.Errorf("error creating jetstream [needs a nats-server with -js] : %w", err)
	}
	return nil
}

func (n *Nats) Send(topic string, v []byte) error {
	if err := n.nc.Publish(topic, v); err != nil {
		return fmt.Errorf("nats publish %s: %w", topic, err)
	}
	return nil
}

func (n *Nats) Recv(topic string) chan []byte {
	n.m.Lock()
	defer n.m.Unlock()

	if ch := n.subs[topic]; ch != nil {
		return ch
	}

	ch := make(chan []byte, soloBuffer)
	_, err := n.nc.Subscribe(topic, func(m *nats.Msg) {
		select {
		case ch <- m.Data:
		default:
			log.Warn("bus: dropped message, receiver is behind", "topic", topic)
		}
	})
	if err != nil {
		log.Error("bus: subscribe failed", "topic", topic, "err", err)
		return ch
	}

	// make sure the server has seen the subscription before anyone publishes
	if err := n.nc.Flush(); err != nil {
		log.Warn("bus: flush after subscribe", "topic", topic, "err", err)
	}

	n.subs[topic] = ch
	return ch
}

func (n *Nats) Close() {
	if err := n.nc.Drain(); err != nil {
		n.nc.Close()
	}
	if n.embedded != nil {
		n.embedded.Shutdown()
		n.embedded.WaitForShutdown()
	}
}
