package server

import (
	"encoding/json"
	"net/http"

	"ytbridge/internal/domain/consts"
	"ytbridge/internal/domain/logger"

	"github.com/go-chi/chi/v5"
)

// Method names.
const (
	methodDownload = "download"
)

// Argument keys of the download method.
const (
	argURL    = "url"
	argFormat = "format"
)

// methodCall is a single call on a method channel.
type methodCall struct {
	Method    string         `json:"method"`
	Arguments map[string]any `json:"arguments"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Method string `json:"method,omitempty"`
}

type handlers struct {
	queue Submitter
}

// handleHealth reports the server is up.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		logger.Pl.Error().Err(err).Msg("failed to write health response")
	}
}

// handleMethodCall dispatches a call on the bridge channel.
func (h *handlers) handleMethodCall(w http.ResponseWriter, r *http.Request) {
	if ch := chi.URLParam(r, "channel"); ch != consts.ChannelName {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown channel " + ch})
		return
	}

	var call methodCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid method call: " + err.Error()})
		return
	}

	switch call.Method {
	case methodDownload:
		h.handleDownload(w, r, call)
	default:
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "not implemented", Method: call.Method})
	}
}

// handleDownload queues the download and waits for its result.
//
// All download failures are reported with 200 and success=false.
func (h *handlers) handleDownload(w http.ResponseWriter, r *http.Request, call methodCall) {
	resCh := h.queue.Submit(stringArg(call.Arguments, argURL), stringArg(call.Arguments, argFormat))

	select {
	case res := <-resCh:
		writeJSON(w, http.StatusOK, res)
	case <-r.Context().Done():
		logger.Pl.Warn().Err(r.Context().Err()).Msg("Caller went away before the download finished")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "request ended before the download finished"})
	}
}

// stringArg returns args[key] when it is a string, or "".
func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Pl.Error().Err(err).Msg("failed to encode JSON")
	}
}
