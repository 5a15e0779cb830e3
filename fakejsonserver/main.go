package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load()
	seedEnv := getEnv("FAKEJSON_SEED", "1")
	defaultSeed, err := strconv.ParseInt(seedEnv, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid config option FAKEJSON_SEED: %w", err)
	}

	host := flag.String("h", getEnv("FAKEJSON_HOST", ""), "the host to listen on")
	port := flag.String("p", getEnv("FAKEJSON_PORT", "80"), "the port to listen on")
	seed := flag.Int64("s", defaultSeed, "seed of the /random documents")
	flag.Parse()

	s := newServer(*seed)
	s.setupRoutes()

	srv := &http.Server{
		Addr:              net.JoinHostPort(*host, *port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	slog.Info("listening", "addr", srv.Addr, "seed", *seed)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
