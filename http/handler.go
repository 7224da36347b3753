package http

import (
	"net/http"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/htm/htm"
	"github.com/aukilabs/htm/models"
	"github.com/segmentio/encoding/json"
)

const (
	ContentTypeJSON     = "application/json"
	ContentTypeProtobuf = "application/x-protobuf"
)

// HandleWithCORS sets the CORS headers before calling h.
func HandleWithCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		h.ServeHTTP(w, r)
	})
}

// HandlePreflight answers CORS preflight requests.
func HandlePreflight(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
}

func HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func HandleReadyCheck(readinessCheck func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !readinessCheck() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func HandleVersion(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(version))
	}
}

// StatusCode returns the HTTP status that matches the type of err.
func StatusCode(err error) int {
	switch errors.Type(err) {
	case models.ErrTypeBadRequest,
		models.ErrTypeListingTooLarge,
		htm.ErrTypeInvalidDepth,
		htm.ErrTypeInvalidName,
		htm.ErrTypeInvalidDirection,
		htm.ErrTypeDegenerateTriangle:
		return http.StatusBadRequest

	case htm.ErrTypeInvalidIndex:
		return http.StatusNotFound

	case htm.ErrTypeOutOfDomain:
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logs.Warn(errors.New("encoding response failed").Wrap(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	w.Write(b)
}

func writeProtobuf(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", ContentTypeProtobuf)
	w.WriteHeader(status)
	w.Write(b)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	if status == http.StatusInternalServerError {
		logs.WithTag("path", r.URL.Path).
			WithTag("method", r.Method).
			Warn(err)
	}
	writeJSON(w, status, models.NewErrorResponse("", err))
}
