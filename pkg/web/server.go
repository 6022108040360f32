package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/ritzau/bellman-viz/pkg/bellmanford"
	"github.com/ritzau/bellman-viz/pkg/controller"
	"github.com/ritzau/bellman-viz/pkg/generator"
	"github.com/ritzau/bellman-viz/pkg/graph"
	"github.com/ritzau/bellman-viz/pkg/logging"
	"github.com/ritzau/bellman-viz/pkg/metrics"
	"github.com/ritzau/bellman-viz/pkg/model"
	"github.com/ritzau/bellman-viz/pkg/pubsub"
)

// RunStateMessage is the payload of run_state events
type RunStateMessage struct {
	Event    controller.Event    `json:"event"`
	Snapshot controller.Snapshot `json:"snapshot"`
}

// CommandResponse is returned by run commands
type CommandResponse struct {
	Snapshot controller.Snapshot `json:"snapshot"`
	Notice   string              `json:"notice,omitempty"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
}

type randomGraphRequest struct {
	Nodes any `json:"nodes"` // String or number; anything unparsable picks a random count
}

type selectionRequest struct {
	Source *string `json:"source"`
	Target *string `json:"target"`
}

type speedRequest struct {
	Speed int `json:"speed" validate:"min=1,max=10"`
}

type speedResponse struct {
	Speed   int   `json:"speed"`
	DelayMs int64 `json:"delayMs"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Server represents the web server
type Server struct {
	router    *mux.Router
	ctrl      *controller.Controller
	publisher *pubsub.SSEPublisher
	metrics   *metrics.Registry

	genMu     sync.Mutex
	generator *generator.Generator
}

// NewServer creates a web server driving ctrl. gen backs POST /api/graph/random.
func NewServer(ctrl *controller.Controller, gen *generator.Generator, reg *metrics.Registry) *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// run_state: replay every event of the current run; the buffer is dropped when a run begins
	ssePublisher.ConfigureTopic(pubsub.TopicRunState, pubsub.TopicConfig{
		BufferSize: 512,
		ReplayAll:  true,
	})

	// graph: only the current graph matters
	ssePublisher.ConfigureTopic(pubsub.TopicGraph, pubsub.TopicConfig{
		BufferSize: 1,
		ReplayAll:  false,
	})

	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	ssePublisher.OnSubscriberChange(func(topic string, delta int) {
		reg.SSEClientConnected(delta)
	})

	s := &Server{
		router:    mux.NewRouter(),
		ctrl:      ctrl,
		publisher: ssePublisher,
		metrics:   reg,
		generator: gen,
	}
	ctrl.Observe(s.publishEvent)
	s.publishGraph(ctrl.Snapshot().Graph)
	s.setupRoutes()
	return s
}

// publishEvent forwards controller events to SSE subscribers
func (s *Server) publishEvent(ev controller.Event, snap controller.Snapshot) {
	switch ev.Type {
	case controller.EventInitialized, controller.EventReset, controller.EventGraphLoaded:
		s.publisher.ResetTopic(pubsub.TopicRunState)
	}

	if err := s.publisher.Publish(pubsub.TopicRunState, string(ev.Type), RunStateMessage{Event: ev, Snapshot: snap}); err != nil {
		logging.Debug("failed to publish run event", "type", ev.Type, "error", err)
	}

	if ev.Type == controller.EventGraphLoaded {
		s.publishGraph(snap.Graph)
	}
}

func (s *Server) publishGraph(view controller.GraphView) {
	if err := s.publisher.Publish(pubsub.TopicGraph, string(controller.EventGraphLoaded), view); err != nil {
		logging.Debug("failed to publish graph", "error", err)
	}
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware, s.metricsMiddleware)

	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/run_state", s.handleSubscribe(pubsub.TopicRunState)).Methods("GET")
	s.router.HandleFunc("/api/subscribe/graph", s.handleSubscribe(pubsub.TopicGraph)).Methods("GET")

	// Graph
	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/graph/random", s.handleRandomGraph).Methods("POST")
	s.router.HandleFunc("/api/graph/nodes/{id}/position", s.handleMoveNode).Methods("PUT")

	// Run configuration
	s.router.HandleFunc("/api/selection", s.handleSelection).Methods("PUT")
	s.router.HandleFunc("/api/speed", s.handleSpeed).Methods("PUT")

	// Run commands
	s.router.HandleFunc("/api/run/state", s.handleRunState).Methods("GET")
	s.router.HandleFunc("/api/run/start", s.handleCommand(s.ctrl.Start)).Methods("POST")
	s.router.HandleFunc("/api/run/step", s.handleCommand(s.ctrl.SingleStep)).Methods("POST")
	s.router.HandleFunc("/api/run/stop", s.handleCommand(func() error { s.ctrl.Stop(); return nil })).Methods("POST")
	s.router.HandleFunc("/api/run/reset", s.handleCommand(func() error { s.ctrl.Reset(); return nil })).Methods("POST")

	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleSubscribe(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Set SSE headers
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*") // CORS support

		// Send initial comment to establish connection (Safari compatibility)
		fmt.Fprintf(w, ": connected\n\n")
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}

		sub, err := s.publisher.Subscribe(r.Context(), topic)
		if err != nil {
			logging.ErrorContext(r.Context(), "subscribe failed", "topic", topic, "error", err)
			return
		}
		defer sub.Close()

		for {
			select {
			case <-r.Context().Done():
				return
			case event, ok := <-sub.Events():
				if !ok {
					return
				}
				if err := pubsub.WriteSSE(w, event); err != nil {
					logging.DebugContext(r.Context(), "error writing SSE event", "topic", topic, "error", err)
					return
				}
				if flusher, ok := w.(http.Flusher); ok {
					flusher.Flush()
				}
			}
		}
	}
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot().Graph)
}

func (s *Server) handleRandomGraph(w http.ResponseWriter, r *http.Request) {
	var req randomGraphRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	raw := ""
	if req.Nodes != nil {
		raw = fmt.Sprint(req.Nodes)
	}

	g, err := s.generate(raw)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.ctrl.SetGraph(g)

	writeJSON(w, http.StatusOK, s.ctrl.Snapshot().Graph)
}

func (s *Server) generate(raw string) (*graph.Graph, error) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.generator == nil {
		return nil, generator.ErrNoRandomSource
	}
	return s.generator.Generate(s.generator.ParseNodeCount(raw))
}

func (s *Server) handleMoveNode(w http.ResponseWriter, r *http.Request) {
	var pos model.Position
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid position: %w", err))
		return
	}

	if err := s.ctrl.MoveNode(mux.Vars(r)["id"], pos); err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid selection: %w", err))
		return
	}

	source, target := s.ctrl.Selection()
	if req.Source != nil {
		source = *req.Source
	}
	if req.Target != nil {
		target = *req.Target
	}
	if err := s.ctrl.Select(source, target); err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req speedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid speed: %w", err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid speed: %w", err))
		return
	}

	delay := s.ctrl.SetSpeed(req.Speed)
	writeJSON(w, http.StatusOK, speedResponse{Speed: req.Speed, DelayMs: delay.Milliseconds()})
}

func (s *Server) handleRunState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

// handleCommand runs a controller command. Informational outcomes are 200 with a notice.
func (s *Server) handleCommand(cmd func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := cmd()
		if err != nil && !bellmanford.Informational(err) {
			writeError(w, r, statusFor(err), err)
			return
		}

		snap := s.ctrl.Snapshot()
		writeJSON(w, http.StatusOK, CommandResponse{Snapshot: snap, Notice: snap.Notice})
	}
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, controller.ErrNoSourceSelected):
		return http.StatusBadRequest
	case errors.Is(err, graph.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, controller.ErrRunInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		logging.ErrorContext(r.Context(), "request error", "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// metricsMiddleware records request counts and latencies by route template
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.metrics.RecordHTTPRequest(r.Method, route, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher for SSE support
func (rec *statusRecorder) Flush() {
	if flusher, ok := rec.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Start serves on port until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Closing the publisher ends SSE streams before Shutdown waits on them
	s.publisher.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logging.Info("web server stopped")
	return nil
}
