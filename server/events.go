package server

import (
	"encoding/json"

	"github.com/aep/videolib/api"
)

// publish is best effort, a failed send never fails the mutation.
func (s *server) publish(typ string, id string, video *api.Video) {
	ev := api.Event{
		Type:  typ,
		Id:    id,
		Video: video,
		At:    s.now().UTC(),
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error("marshal event", "type", typ, "id", id, "err", err)
		return
	}

	if err := s.bus.Send(typ, payload); err != nil {
		log.Warn("publish event", "type", typ, "id", id, "err", err)
	}
}
