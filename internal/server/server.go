// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package server exposes a calc Runtime over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jcgregorio/logger"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"nickandperla.net/calc/internal/calcerr"
	"nickandperla.net/calc/pkg/calc"
)

const (
	// maxBodyBytes bounds request bodies.
	maxBodyBytes = 1 << 20

	// maxBatch bounds the number of expressions in one batch request.
	maxBatch = 1000

	shutdownTimeout = 5 * time.Second
)

// EvalRequest is the body of POST /eval.
type EvalRequest struct {
	Expression string `json:"expression"`
}

// EvalResponse is the body returned by POST /eval and each element of a batch.
// Exactly one of Result and Error is meaningful.
type EvalResponse struct {
	Expression string `json:"expression"`
	Result     *int64 `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
	Kind       string `json:"kind,omitempty"`
}

// BatchRequest is the body of POST /batch.
type BatchRequest struct {
	Expressions []string `json:"expressions"`
}

// BatchResponse is the body returned by POST /batch.
type BatchResponse struct {
	Results []EvalResponse `json:"results"`
}

// Server serves the calc HTTP API.
type Server struct {
	rt       *calc.Runtime
	gatherer prometheus.Gatherer
	log      *logger.Logger
	router   *chi.Mux
}

// New returns a Server for rt. Metrics are read from gatherer, which may be
// nil to disable /metrics.
func New(rt *calc.Runtime, gatherer prometheus.Gatherer, log *logger.Logger) *Server {
	s := &Server{
		rt:       rt,
		gatherer: gatherer,
		log:      log,
		router:   chi.NewRouter(),
	}
	s.registerHandlers(s.router)
	return s
}

func (s *Server) registerHandlers(router *chi.Mux) {
	router.Post("/eval", s.evalHandler)
	router.Post("/batch", s.batchHandler)
	router.Get("/history", s.historyHandler)
	router.Get("/healthz", s.healthzHandler)
	if s.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// Handler returns the API wrapped with CORS handling.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	return c.Handler(s.router)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Ready to serve on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serving")
	case <-ctx.Done():
	}

	s.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down")
	}
	return nil
}

func (s *Server) evalHandler(w http.ResponseWriter, r *http.Request) {
	var req EvalRequest
	if err := decode(w, r, &req); err != nil {
		s.reportError(w, err, "Failed to decode request.", http.StatusBadRequest)
		return
	}

	v, err := s.rt.Eval(req.Expression)
	resp := response(req.Expression, v, err)
	code := http.StatusOK
	if err != nil {
		code = statusFor(err)
	}
	s.writeJSON(w, code, resp)
}

func (s *Server) batchHandler(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decode(w, r, &req); err != nil {
		s.reportError(w, err, "Failed to decode request.", http.StatusBadRequest)
		return
	}
	if len(req.Expressions) > maxBatch {
		s.reportError(w, errors.Errorf("%d expressions", len(req.Expressions)),
			"Too many expressions in batch.", http.StatusRequestEntityTooLarge)
		return
	}

	results, err := s.rt.EvalBatch(r.Context(), req.Expressions)
	if err != nil {
		s.reportError(w, err, "Batch cancelled.", http.StatusServiceUnavailable)
		return
	}

	resp := BatchResponse{Results: make([]EvalResponse, len(results))}
	for i, res := range results {
		resp.Results[i] = response(res.Expression, res.Value, res.Err)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			s.reportError(w, errors.Errorf("limit %q", l), "Invalid limit.", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := s.rt.History(r.URL.Query().Get("session"), limit)
	if err != nil {
		s.reportError(w, err, "Failed to load history.", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []calc.Entry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorf("Failed to write response: %s", err)
	}
}

// reportError logs err and sends message with the given status code.
func (s *Server) reportError(w http.ResponseWriter, err error, message string, code int) {
	s.log.Errorf("%s %s", message, err)
	http.Error(w, message, code)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func response(expr string, v int64, err error) EvalResponse {
	resp := EvalResponse{Expression: expr}
	if err != nil {
		resp.Error = err.Error()
		resp.Kind = calcerr.KindOf(err)
		return resp
	}
	resp.Result = &v
	return resp
}

// statusFor maps an evaluation error to an HTTP status. Problems with the
// expression itself are 422; anything else is a server fault.
func statusFor(err error) int {
	if calcerr.IsUserError(err) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
