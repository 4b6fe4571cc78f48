// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/ManuGH/smartplayer/internal/host"
	"github.com/ManuGH/smartplayer/internal/log"
	"github.com/ManuGH/smartplayer/internal/media"
	"github.com/ManuGH/smartplayer/internal/player"
	"github.com/goccy/go-json"
)

// Error codes.
const (
	CodeBadRequest      = "bad_request"
	CodeInvalidJSON     = "invalid_json"
	CodePlayerNotFound  = "player_not_found"
	CodePlayerClosed    = "player_closed"
	CodeUnknownAction   = "unknown_action"
	CodeRateLimited     = "rate_limited"
	CodeUnavailable     = "unavailable"
	CodeJournalDisabled = "journal_disabled"
	CodeInternal        = "internal_error"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, ErrorResponse{Error: code, Detail: detail})
}

// classify maps a domain error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, host.ErrPlayerNotFound):
		return http.StatusNotFound, CodePlayerNotFound
	case errors.Is(err, host.ErrRateLimited):
		return http.StatusTooManyRequests, CodeRateLimited
	case errors.Is(err, player.ErrUnknownAction):
		return http.StatusBadRequest, CodeUnknownAction
	case errors.Is(err, media.ErrClosed):
		return http.StatusGone, CodePlayerClosed
	case errors.Is(err, host.ErrClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, CodeUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= 500 {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Str("code", code).Msg("request failed")
	}
	writeError(w, status, code, err.Error())
}
