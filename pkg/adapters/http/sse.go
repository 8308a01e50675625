package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/lao/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// SubscribeEvents handles GET /workflows/{id}/events (SSE).
// The optional watch parameter keeps only the listed event types.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")
	var watch map[domain.EventType]bool
	if v := r.URL.Query().Get("watch"); v != "" {
		watch = make(map[domain.EventType]bool)
		for _, t := range strings.Split(v, ",") {
			watch[domain.EventType(strings.TrimSpace(t))] = true
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, unsubscribe := s.Service.Subscribe(id)
	defer unsubscribe()
	s.logger.Info("SSE: Subscribed", "workflow", id)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected", "workflow", id)
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if watch != nil && !watch[e.Type] {
				continue
			}
			data, err := json.Marshal(e)
			if err != nil {
				s.logger.Error("SSE: Encode failed", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
			flusher.Flush()
		}
	}
}
