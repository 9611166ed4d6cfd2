package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/skillupx/skillupx/problem"
	"github.com/skillupx/skillupx/runner"
	"github.com/skillupx/skillupx/wrapper"
)

var (
	errNoRunner       = errors.New("no execution backend configured")
	errSourceTooLarge = errors.New("source too large")
	errBadRequest     = errors.New("bad request")
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Error   bool   `json:"error"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Data: data, Message: msg})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Error: true, Message: msg})
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, wrapper.ErrUnsupportedLanguage),
		errors.Is(err, wrapper.ErrEmptyFunctionName),
		errors.Is(err, wrapper.ErrInvalidFunctionName),
		errors.Is(err, wrapper.ErrMissingSignature),
		errors.Is(err, wrapper.ErrInvalidSignature),
		errors.Is(err, wrapper.ErrInvalidInputFormat),
		errors.Is(err, runner.ErrUnsupportedLanguage),
		errors.Is(err, runner.ErrNoTestCases),
		errors.Is(err, problem.ErrInvalidProblem),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, problem.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errSourceTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errNoRunner):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	s.metrics.Errors.Add(1)
	level := slog.LevelWarn
	if status >= 500 {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed",
		"request_id", RequestID(r.Context()),
		"status", status,
		"err", err,
	)
	writeError(w, status, err.Error())
}
