package bus

import (
	"fmt"
	"time"

	natsd "github.com/nats-io/nats-server/v2/server"
)

type EmbeddedOptions struct {
	Host string
	// Port -1 picks a random free port.
	Port int
	// StoreDir enables JetStream when set.
	StoreDir string
}

func NewEmbeddedNats(o EmbeddedOptions) (*natsd.Server, error) {
	if o.Host == "" {
		o.Host = "localhost"
	}

	opts := &natsd.Options{
		Host:   o.Host,
		Port:   o.Port,
		NoLog:  true,
		NoSigs: true,
	}
	if o.StoreDir != "" {
		opts.JetStream = true
		opts.StoreDir = o.StoreDir
	}

	ns, err := natsd.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded nats: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded nats did not become ready")
	}

	log.Info("started embedded nats", "url", ns.ClientURL(), "jetstream", opts.JetStream)
	return ns, nil
}
