package web

import (
	"compress/gzip"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/forecast/internal/domain"
	"github.com/vadiminshakov/forecast/internal/filter"
	"github.com/vadiminshakov/forecast/internal/services/forecast"
)

type forecastResponse struct {
	Version uint64                `json:"version"`
	LoadID  string                `json:"load_id"`
	Status  forecast.Status       `json:"status"`
	Error   string                `json:"error,omitempty"`
	Filters domain.FilterState    `json:"filters"`
	Menus   forecast.Menus        `json:"menus"`
	View    forecast.ForecastView `json:"forecast"`
}

type pipelineResponse struct {
	Version uint64                `json:"version"`
	LoadID  string                `json:"load_id"`
	Status  forecast.Status       `json:"status"`
	Error   string                `json:"error,omitempty"`
	View    forecast.PipelineView `json:"pipeline"`
}

type toggleRequest struct {
	Bucket string `json:"bucket"`
}

type filterRequest struct {
	Dimension string `json:"dimension"`
	Value     string `json:"value"`
}

type comparisonRequest struct {
	Period string `json:"period"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	snap := s.board.Snapshot()
	view := snap.Forecast

	if column := r.URL.Query().Get("sort"); column != "" {
		sort, err := forecast.ParseSort(column, r.URL.Query().Get("dir"))
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
		view.Sort = sort
		view.Deals = forecast.SortDeals(view.Deals, sort)
	}

	s.writeJSON(w, r, http.StatusOK, forecastResponse{
		Version: snap.Version,
		LoadID:  snap.LoadID,
		Status:  snap.Status,
		Error:   snap.Error,
		Filters: snap.Filters,
		Menus:   snap.Menus,
		View:    view,
	})
}

func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, pipelineView(s.board.Snapshot()))
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, errors.Wrap(err, "deal id"))
		return
	}

	var req toggleRequest
	if !s.decode(w, r, &req) {
		return
	}
	bucket, err := domain.ParseBucket(req.Bucket)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	deal, err := s.board.Toggle(id, bucket)
	switch {
	case errors.Is(err, forecast.ErrDealNotFound):
		s.writeError(w, r, http.StatusNotFound, err)
	case err != nil:
		s.writeError(w, r, http.StatusBadRequest, err)
	default:
		s.writeJSON(w, r, http.StatusOK, deal)
	}
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if !s.decode(w, r, &req) {
		return
	}
	dimension, err := filter.ParseDimension(req.Dimension)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	state, err := s.board.SetFilter(dimension, req.Value)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, state)
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	var req comparisonRequest
	if !s.decode(w, r, &req) {
		return
	}
	comparison, err := domain.ParseComparison(req.Period)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	if err := s.board.SetComparison(r.Context(), comparison); err != nil {
		s.writeError(w, r, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, pipelineView(s.board.Snapshot()))
}

func pipelineView(snap forecast.Snapshot) pipelineResponse {
	return pipelineResponse{
		Version: snap.Version,
		LoadID:  snap.LoadID,
		Status:  snap.Pipeline.Status,
		Error:   snap.Pipeline.Error,
		View:    snap.Pipeline,
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, r, http.StatusBadRequest, errors.Wrap(err, "decode request"))
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.l.Warn("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	s.writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(v); err != nil {
			s.l.Warn("encode response", zap.String("path", r.URL.Path), zap.Error(err))
		}
		return
	}

	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Set("Vary", "Accept-Encoding")
	gz := gzip.NewWriter(w)
	defer gz.Close()

	gzw := &gzipResponseWriter{ResponseWriter: w, writer: gz}
	gzw.WriteHeader(status)
	if err := json.NewEncoder(gzw).Encode(v); err != nil {
		s.l.Warn("encode response", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

type gzipResponseWriter struct {
	http.ResponseWriter
	writer *gzip.Writer
}

func (w *gzipResponseWriter) WriteHeader(statusCode int) {
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	return w.writer.Write(b)
}
