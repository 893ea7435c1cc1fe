package api

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"pitcall-engine/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feeder and dashboards connect from arbitrary origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleTelemetryIngest accepts a telemetry feeder connection and forwards
// each JSON sample to the engine. Malformed messages are logged and dropped;
// the connection stays up so one bad sample never stalls the feed.
func (s *Server) handleTelemetryIngest(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("telemetry upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	log.Printf("telemetry feed connected from %s", r.RemoteAddr)

	ctx := r.Context()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("telemetry feed disconnected: %v", err)
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		sample, err := telemetry.Decode(data)
		if err != nil {
			log.Printf("dropping unparseable telemetry message: %v", err)
			continue
		}

		if err := s.engine.Submit(ctx, sample); err != nil {
			return // server shutting down
		}
	}
}

// handleAdvisoryStream attaches a display client to the fanout hub and
// writes every packet it receives as one JSON message. The client gets the
// last known advisory immediately so its UI is never blank. A disconnect
// detaches only that client.
func (s *Server) handleAdvisoryStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("advisory upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	id, packets := s.hub.Subscribe()
	defer s.hub.Unsubscribe(id)
	log.Printf("advisory consumer %s connected from %s", id, r.RemoteAddr)

	// Reader goroutine: we never expect messages from consumers, but reading
	// is how gorilla surfaces close frames and dead connections.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			log.Printf("advisory consumer %s disconnected", id)
			return
		case pkt, ok := <-packets:
			if !ok {
				return // hub closed
			}
			if err := conn.WriteJSON(pkt); err != nil {
				log.Printf("advisory consumer %s write failed: %v", id, err)
				return
			}
		}
	}
}
