package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/wethinkt/go-colorgorical/internal/applog"
	"github.com/wethinkt/go-colorgorical/internal/hue"
	"github.com/wethinkt/go-colorgorical/internal/jnd"
	"github.com/wethinkt/go-colorgorical/internal/palette"
	"github.com/wethinkt/go-colorgorical/internal/scoring"
	"github.com/wethinkt/go-colorgorical/internal/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HistoryResponse lists stored palettes.
type HistoryResponse struct {
	Palettes []store.Record `json:"palettes"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, err string, msg string) {
	apiErrorsTotal.WithLabelValues(err).Inc()
	writeJSON(w, status, ErrorResponse{Error: err, Message: msg})
}

// writeServiceError maps service errors onto HTTP statuses: bad input is
// 400, scoring failures 502, anything else 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, palette.ErrInvalidInput),
		errors.Is(err, hue.ErrMalformedRange),
		errors.Is(err, jnd.ErrInvalidMarkSize):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, scoring.ErrUnavailable), errors.Is(err, scoring.ErrMalformedOutput):
		writeError(w, http.StatusBadGateway, "scoring_unavailable", err.Error())
	case errors.Is(err, ErrNoReference), errors.Is(err, ErrHistoryDisabled):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		applog.Log.Error("API request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// decodeBody decodes a JSON body into v. An empty body leaves v unchanged.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

// handleMakePalette builds a palette.
func (s *HTTPServer) handleMakePalette(w http.ResponseWriter, r *http.Request) {
	var in MakeRequest
	if !decodeBody(w, r, &in) {
		return
	}
	out, err := s.service.Make(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleScorePalette scores a submitted palette.
func (s *HTTPServer) handleScorePalette(w http.ResponseWriter, r *http.Request) {
	var in ScoreRequest
	if !decodeBody(w, r, &in) {
		return
	}
	out, err := s.service.Score(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetReference returns reference palette comparisons, optionally for
// one size.
func (s *HTTPServer) handleGetReference(w http.ResponseWriter, r *http.Request) {
	size := 0
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2 {
			writeError(w, http.StatusBadRequest, "invalid_input", fmt.Sprintf("size %q must be an integer of at least 2", v))
			return
		}
		size = n
	}
	out, err := s.service.References(size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleConvert converts one color given as ?lab=L,a,b, ?rgb=r,g,b or
// ?hex=#rrggbb.
func (s *HTTPServer) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var in ConvertRequest
	if v := q.Get("lab"); v != "" {
		lab, err := parseTriple(v)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		in.Lab = lab
	}
	if v := q.Get("rgb"); v != "" {
		rgb, err := parseTriple(v)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		in.RGB = []int{int(rgb[0]), int(rgb[1]), int(rgb[2])}
	}
	if v := q.Get("hex"); v != "" {
		if !strings.HasPrefix(v, "#") {
			v = "#" + v
		}
		in.Hex = v
	}
	out, err := s.service.Convert(in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleNormalizeHues merges raw hue ranges.
func (s *HTTPServer) handleNormalizeHues(w http.ResponseWriter, r *http.Request) {
	var in NormalizeRequest
	if !decodeBody(w, r, &in) {
		return
	}
	out, err := s.service.NormalizeHues(in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetHistory lists recently made and scored palettes.
func (s *HTTPServer) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_input", fmt.Sprintf("limit %q must be a positive integer", v))
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	records, err := s.service.History(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Palettes: records})
}
