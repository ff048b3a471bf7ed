package bus

import (
	"fmt"
	"strings"
)

// Bus carries video change events. Delivery is best effort.
type Bus interface {
	Send(topic string, v []byte) error
	Recv(topic string) chan []byte
	Close()
}

// Open picks a bus from a config value: "" or "solo" for in-process,
// "embedded" for a local nats-server, or a nats:// URL.
func Open(spec string) (Bus, error) {
	switch {
	case spec == "" || spec == "solo":
		return NewSolo()
	case spec == "embedded":
		ns, err := NewEmbeddedNats(EmbeddedOptions{Port: 4222, StoreDir: "nats-store"})
		if err != nil {
			return nil, err
		}
		b, err := ConnectNats(ns.ClientURL())
		if err != nil {
			ns.Shutdown()
			return nil, err
		}
		b.embedded = ns
		if err := b.EnsureStream(); err != nil {
			b.Close()
			return nil, err
		}
		return b, nil
	case strings.HasPrefix(spec, "nats://") || strings.HasPrefix(spec, "tls://"):
		return ConnectNats(spec)
	}
	return nil, fmt.Errorf("unknown bus %q", spec)
}
