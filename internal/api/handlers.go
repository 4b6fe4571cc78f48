// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/ManuGH/smartplayer/internal/api/middleware"
	"github.com/ManuGH/smartplayer/internal/player"
	"github.com/ManuGH/smartplayer/internal/tracking"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

const (
	maxBodyBytes      = 64 << 10
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidJSON, err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return false
	}
	return true
}

func playerID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req CreatePlayerRequest
	if !s.decode(w, r, &req) {
		return
	}
	info, err := s.players.Create(r.Context(), req.Attributes)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/players/"+info.ID)
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListPlayers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ListPlayersResponse{Players: s.players.List()})
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	id := playerID(r)
	info, err := s.players.Get(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status, err := s.players.Status(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PlayerResponse{Info: info, Status: status, Layout: info.Config.Layout()})
}

func (s *Server) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	if err := s.players.Remove(playerID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	id := playerID(r)
	var cmd player.Command
	if !s.decode(w, r, &cmd) {
		return
	}
	middleware.AnnotatePlayer(r, "", cmd.Action)
	if err := s.players.Command(r.Context(), id, cmd); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeStatus(w, r, id, http.StatusAccepted)
}

func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	id := playerID(r)
	var req NotificationRequest
	if !s.decode(w, r, &req) {
		return
	}
	n, err := req.Notification()
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if err := s.players.Notify(r.Context(), id, n); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleIntersection(w http.ResponseWriter, r *http.Request) {
	id := playerID(r)
	var req IntersectionRequest
	if !s.decode(w, r, &req) {
		return
	}
	delivered, err := s.players.Intersect(id, req.Entries)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, IntersectionResponse{Delivered: delivered})
}

func (s *Server) handleGesture(w http.ResponseWriter, r *http.Request) {
	id := playerID(r)
	var req GestureRequest
	if !s.decode(w, r, &req) {
		return
	}
	action, err := s.players.Gesture(r.Context(), id, req.Gesture())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GestureResponse{Action: action})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := playerID(r)
	if s.events == nil {
		writeError(w, http.StatusServiceUnavailable, CodeJournalDisabled, "event journal is not configured")
		return
	}
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxEventLimit {
			writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxEventLimit))
			return
		}
		limit = n
	}
	records, err := s.events.Recent(r.Context(), id, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if records == nil {
		records = []tracking.Record{}
	}
	writeJSON(w, http.StatusOK, EventsResponse{Events: records})
}

func (s *Server) writeStatus(w http.ResponseWriter, r *http.Request, id string, code int) {
	status, err := s.players.Status(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, code, status)
}
