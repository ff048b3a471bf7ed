package bus

import (
	"sync"
)

const soloBuffer = 64

// SoloBus is the in-process bus. A topic's channel is shared by all receivers.
type SoloBus struct {
	m    sync.Mutex
	subs map[string]chan []byte
}

func (self *SoloBus) Send(topic string, v []byte) error {

	self.m.Lock()
	defer self.m.Unlock()

	if self.subs[topic] != nil {
		select {
		case self.subs[topic] <- v:
		default:
			log.Warn("bus: dropped message, receiver is behind", "topic", topic)
		}
	}

	return nil
}

func (self *SoloBus) Recv(topic string) chan []byte {

	self.m.Lock()
	defer self.m.Unlock()

	if self.subs[topic] == nil {
		self.subs[topic] = make(chan []byte, soloBuffer)
	}

	return self.subs[topic]
}

func (self *SoloBus) Close() {
	self.m.Lock()
	defer self.m.Unlock()

	for topic, ch := range self.subs {
		close(ch)
		delete(self.subs, topic)
	}
}

func NewSolo() (Bus, error) {
	return &SoloBus{
		subs: make(map[string]chan []byte),
	}, nil
}
