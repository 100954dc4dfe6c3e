package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/s0up4200/autolabel/filter"
	"github.com/s0up4200/autolabel/labeler"
	"github.com/s0up4200/autolabel/qbittorrent"
	"github.com/s0up4200/autolabel/rules"
)

var (
	errUnauthorized = errors.New("missing or invalid api key")
	errBadIndex     = errors.New("rule index must be an integer")
	errMissingID    = errors.New("id is required")
)

// requestError marks a malformed request body
type requestError struct {
	err error
}

func (e *requestError) Error() string {
	return "invalid request body: " + e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	var (
		patternErr *rules.InvalidPatternError
		filterErr  *filter.CompilationError
		reqErr     *requestError
	)

	switch {
	case errors.As(err, &patternErr),
		errors.As(err, &filterErr),
		errors.As(err, &reqErr),
		errors.Is(err, rules.ErrEmptyLabel),
		errors.Is(err, rules.ErrEmptyPattern),
		errors.Is(err, errBadIndex):
		return http.StatusBadRequest
	case errors.Is(err, rules.ErrIndexOutOfRange),
		errors.Is(err, qbittorrent.ErrTorrentNotFound),
		errors.Is(err, labeler.ErrUnknownName):
		return http.StatusNotFound
	case errors.Is(err, labeler.ErrNoTorrentSource):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
