package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/siegeai/shapecast/apispec"
	"github.com/siegeai/shapecast/capture"
	"github.com/siegeai/shapecast/codegen"
	"github.com/siegeai/shapecast/infer"
	"github.com/siegeai/shapecast/merge"
	"github.com/siegeai/shapecast/shape"
	"github.com/urfave/negroni"
	"github.com/valyala/fastjson"
)

const maxBodyBytes = 10 << 20

var errNotArray = errors.New("merge expects a non-empty JSON array of observations")

func (s *Server) setupRoutes(reg *prometheus.Registry) {
	s.router.HandleFunc("/schema", s.handleSchema()).Methods("POST")
	s.router.HandleFunc("/merge", s.handleMerge()).Methods("POST")
	s.router.HandleFunc("/sessions/{session}/monitor", s.handleStartMonitor()).Methods("POST")
	s.router.HandleFunc("/sessions/{session}/monitor", s.handleStopMonitor()).Methods("DELETE")
	s.router.HandleFunc("/sessions/{session}/monitor", s.handleGetMonitor()).Methods("GET")
	s.router.HandleFunc("/sessions/{session}/openapi", s.handleSessionOpenAPI()).Methods("GET")
	s.router.HandleFunc("/sessions/{session}/requests", s.handleRecord()).Methods("POST")
	s.router.HandleFunc("/sessions/{session}/requests", s.handleListRequests()).Methods("GET")
	s.router.HandleFunc("/sessions/{session}/requests", s.handleClearRequests()).Methods("DELETE")
	s.router.HandleFunc("/sessions/{session}/requests/{id}/schema", s.handleRequestSchema()).Methods("GET")
	s.router.HandleFunc("/sessions/{session}/requests/{id}/openapi", s.handleRequestOpenAPI()).Methods("GET")
	s.router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods("GET")
	s.router.Use(logMiddleware)
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := negroni.NewResponseWriter(w)
		next.ServeHTTP(ww, r)
		slog.Info("request", "method", r.Method, "uri", r.RequestURI, "status", ww.Status(), "size", ww.Size())
	})
}

// renderOptions reads dialect, examples and indent from the query string.
func (s *Server) renderOptions(r *http.Request) (codegen.Dialect, codegen.Options, error) {
	q := r.URL.Query()
	d := s.dialect
	opts := codegen.Options{}

	if name := q.Get("dialect"); name != "" {
		var err error
		if d, err = codegen.DialectByName(name); err != nil {
			return d, opts, fmt.Errorf("%w: %q", err, name)
		}
	}
	if ex := q.Get("examples"); ex != "" {
		b, err := strconv.ParseBool(ex)
		if err != nil {
			return d, opts, fmt.Errorf("invalid examples flag: %w", err)
		}
		opts.Examples = b
	}
	if in := q.Get("indent"); in != "" {
		n, err := strconv.Atoi(in)
		if err != nil || n < 1 || n > 8 {
			return d, opts, fmt.Errorf("invalid indent %q", in)
		}
		opts.Indent = strings.Repeat(" ", n)
	}
	return d, opts, nil
}

func (s *Server) handleSchema() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, opts, err := s.renderOptions(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}

		a := infer.NewAnalyzer()
		out := codegen.GenerateWith(a, capture.ParseBody(raw), d, opts)
		s.metrics.generated(d.Name, a.Visited())
		writeText(w, out)
	}
}

func (s *Server) handleMerge() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, opts, err := s.renderOptions(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}

		v, err := fastjson.ParseBytes(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		observations, err := v.Array()
		if err != nil || len(observations) == 0 {
			writeError(w, http.StatusBadRequest, errNotArray)
			return
		}

		a := infer.NewAnalyzer()
		nodes := make([]*shape.Node, len(observations))
		for i, o := range observations {
			nodes[i] = a.ParseSampleBodyFastJson(o)
		}
		out := codegen.Render(merge.Nodes(nodes...), d, opts)
		s.metrics.generated(d.Name, a.Visited())
		writeText(w, out)
	}
}

type monitorRequest struct {
	Filter string `json:"filter"`
}

func (s *Server) handleStartMonitor() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := mux.Vars(r)["session"]

		var req monitorRequest
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		if len(strings.TrimSpace(string(raw))) > 0 {
			if err := json.Unmarshal(raw, &req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}

		s.store.Start(session, capture.ParseFilter(req.Filter))
		slog.Debug("monitoring started", "session", session)
		writeJSON(w, http.StatusOK, s.store.State(session))
	}
}

func (s *Server) handleStopMonitor() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := mux.Vars(r)["session"]
		s.store.Stop(session)
		slog.Debug("monitoring stopped", "session", session)
		writeJSON(w, http.StatusOK, s.store.State(session))
	}
}

func (s *Server) handleGetMonitor() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.store.State(mux.Vars(r)["session"]))
	}
}

// recordRequest carries the response body as text, the way it was captured.
type recordRequest struct {
	capture.Capture
	Body string `json:"body"`
}

type recordResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleRecord() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := mux.Vars(r)["session"]

		var req recordRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		c := req.Capture
		c.Body = []byte(req.Body)

		id, err := s.store.Record(session, c)
		switch {
		case errors.Is(err, capture.ErrNotMonitoring):
			s.metrics.exchanges.WithLabelValues(outcomeNotMonitoring).Inc()
			writeError(w, http.StatusConflict, err)
		case errors.Is(err, capture.ErrFiltered):
			s.metrics.exchanges.WithLabelValues(outcomeFiltered).Inc()
			w.WriteHeader(http.StatusAccepted)
		case err != nil:
			writeError(w, http.StatusInternalServerError, err)
		default:
			s.metrics.exchanges.WithLabelValues(outcomeRecorded).Inc()
			writeJSON(w, http.StatusCreated, recordResponse{ID: id})
		}
	}
}

func (s *Server) handleListRequests() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chunk := 0
		if c := r.URL.Query().Get("chunk"); c != "" {
			var err error
			if chunk, err = strconv.Atoi(c); err != nil || chunk < 0 {
				writeError(w, http.StatusBadRequest, fmt.Errorf("invalid chunk %q", c))
				return
			}
		}
		writeJSON(w, http.StatusOK, s.store.List(mux.Vars(r)["session"], chunk))
	}
}

func (s *Server) handleClearRequests() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.store.Clear(mux.Vars(r)["session"])
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleRequestSchema() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		d, opts, err := s.renderOptions(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		e, err := s.store.Get(vars["session"], vars["id"])
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}

		a := infer.NewAnalyzer()
		out := codegen.GenerateWith(a, e.Body(), d, opts)
		s.metrics.generated(d.Name, a.Visited())
		writeText(w, out)
	}
}

func (s *Server) handleRequestOpenAPI() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		e, err := s.store.Get(vars["session"], vars["id"])
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}

		b := e.Body()
		if b.Failed() {
			writeError(w, http.StatusUnprocessableEntity, errors.New(b.Error))
			return
		}
		if b.Empty() {
			writeError(w, http.StatusUnprocessableEntity, errors.New("no response data available"))
			return
		}
		writeJSON(w, http.StatusOK, codegen.OpenAPI(infer.ParseSampleBodyFastJson(b.Data)))
	}
}

// handleSessionOpenAPI describes every endpoint captured in the session.
func (s *Server) handleSessionOpenAPI() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := mux.Vars(r)["session"]
		writeJSON(w, http.StatusOK, apispec.Document(session, apispec.Collect(s.store.All(session))))
	}
}

func writeText(w http.ResponseWriter, s string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("could not encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
