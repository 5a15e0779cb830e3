package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/siegeai/shapecast/fake"
	"github.com/urfave/negroni"
)

const maxRecords = 1000

func (s *server) setupRoutes() {
	s.router.HandleFunc("/", s.handleRoot())
	s.router.HandleFunc("/random", s.handleRandom()).Methods("GET")
	s.router.HandleFunc("/documents/{seed}", s.handleDocument()).Methods("GET")
	s.router.HandleFunc("/records/{seed}", s.handleRecords()).Methods("GET")
	s.router.HandleFunc("/xssi/{seed}", s.handleXSSI()).Methods("GET")
	s.router.Use(logMiddleware)
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := negroni.NewResponseWriter(w)
		next.ServeHTTP(ww, r)
		slog.Info("request", "method", r.Method, "uri", r.RequestURI, "proto", r.Proto, "status", ww.Status())
	})
}

func (*server) handleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "Random JSON lives at /random, /documents/{seed} and /records/{seed}?n=10")
	}
}

func (s *server) handleRandom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, s.random())
	}
}

func (s *server) handleDocument() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seed, err := strconv.ParseInt(mux.Vars(r)["seed"], 10, 64)
		if err != nil {
			http.Error(w, "seed must be an integer", http.StatusBadRequest)
			return
		}
		writeJSON(w, r, fake.New(seed).JSON())
	}
}

func (s *server) handleRecords() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seed, err := strconv.ParseInt(mux.Vars(r)["seed"], 10, 64)
		if err != nil {
			http.Error(w, "seed must be an integer", http.StatusBadRequest)
			return
		}
		n := 10
		if q := r.URL.Query().Get("n"); q != "" {
			if n, err = strconv.Atoi(q); err != nil || n < 0 || n > maxRecords {
				http.Error(w, fmt.Sprintf("n must be between 0 and %d", maxRecords), http.StatusBadRequest)
				return
			}
		}
		writeJSON(w, r, fake.New(seed).Records(n))
	}
}

// handleXSSI serves a document behind the prefix some APIs use against JSON hijacking.
func (s *server) handleXSSI() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seed, err := strconv.ParseInt(mux.Vars(r)["seed"], 10, 64)
		if err != nil {
			http.Error(w, "seed must be an integer", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, ")]}'\n")
		_ = json.NewEncoder(w).Encode(fake.New(seed).JSON())
	}
}

// writeJSON compresses the document when the client accepts gzip.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")

	var out io.Writer = w
	if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		out = gz
	}

	if err := json.NewEncoder(out).Encode(v); err != nil {
		slog.Warn("could not encode document", "err", err)
	}
}
