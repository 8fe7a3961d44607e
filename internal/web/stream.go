package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.updates == nil {
		http.Error(w, "update stream not available", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// subscribe before the first snapshot so no version is missed in between
	updates := s.updates.Subscribe()
	defer s.updates.Unsubscribe(updates)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// send a comment heartbeat so proxies keep connection
	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	lastVersion := parseLastEventID(r.Header.Get("Last-Event-ID"), r.URL.Query().Get("lastEventId"))
	sendSnapshot := func(force bool) error {
		snap := s.board.Snapshot()
		if !force && snap.Version <= lastVersion {
			return nil
		}
		payload, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "id: %d\n", snap.Version)
		fmt.Fprintf(w, "event: snapshot\n")
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		lastVersion = snap.Version
		return nil
	}

	// a reconnecting client that already has the current version gets nothing new;
	// any other version, including one from before a restart, is replaced
	resumed := lastVersion != 0 && lastVersion == s.board.Snapshot().Version
	if err := sendSnapshot(!resumed); err != nil {
		s.l.Warn("stream initial snapshot", zap.Error(err))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case _, open := <-updates:
			if !open {
				return
			}
			if err := sendSnapshot(false); err != nil {
				s.l.Warn("stream snapshot", zap.Error(err))
			}
		}
	}
}

// parseLastEventID extracts an SSE event ID from either the Last-Event-ID header or a query parameter.
// The header is preferred; the query parameter allows manual reconnects to resume from a known version.
func parseLastEventID(headerVal, queryVal string) uint64 {
	idStr := strings.TrimSpace(headerVal)
	if idStr == "" {
		idStr = strings.TrimSpace(queryVal)
	}
	if idStr == "" {
		return 0
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
