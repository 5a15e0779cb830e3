package main

import (
	"sync"

	"github.com/gorilla/mux"
	"github.com/siegeai/shapecast/fake"
)

type server struct {
	router *mux.Router

	mu  sync.Mutex
	gen *fake.Generator
}

func newServer(seed int64) *server {
	return &server{
		router: mux.NewRouter(),
		gen:    fake.New(seed),
	}
}

// random draws the next document of the shared generator.
func (s *server) random() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen.JSON()
}
