package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/siegeai/shapecast/api"
	"github.com/siegeai/shapecast/capture"
	"github.com/siegeai/shapecast/codegen"
	"github.com/siegeai/shapecast/integrations/dashboard"
	"github.com/siegeai/shapecast/listener"
)

func main() {
	_ = godotenv.Load()
	addr := getEnv("SHAPECAST_ADDR", ":8080")
	level := getEnv("SHAPECAST_LOG", "info")
	dialectName := getEnv("SHAPECAST_DIALECT", "zod")
	pcapFile := getEnv("SHAPECAST_PCAP", "")
	device := getEnv("SHAPECAST_DEVICE", "")
	port := getEnv("SHAPECAST_PORT", "0")
	session := getEnv("SHAPECAST_SESSION", "wire")
	server := getEnv("SHAPECAST_SERVER", "")
	apikey := getEnv("SHAPECAST_APIKEY", "")

	err := setupLogging(level)
	if err != nil {
		slog.Error("could not init logging", "err", err)
		return
	}

	dialect, err := codegen.DialectByName(dialectName)
	if err != nil {
		slog.Error("invalid config option SHAPECAST_DIALECT", "dialect", dialectName, "err", err)
		return
	}

	listenPort, err := strconv.Atoi(port)
	if err != nil {
		slog.Error("invalid config option SHAPECAST_PORT", "port", port, "err", err)
		return
	}

	store := capture.NewStore()
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	srv := api.NewServer(store, dialect, reg)

	term := make(chan os.Signal, 1)
	signal.Notify(term, syscall.SIGINT, syscall.SIGTERM)

	wg := &sync.WaitGroup{}
	defer wg.Wait()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wg.Add(1)
	go srv.ServeJob(ctx, wg, addr)

	l, err := newListener(store, session, pcapFile, device, listenPort)
	if err != nil {
		slog.Error("could not init listener", "err", err)
		return
	}

	if l != nil {
		wg.Add(1)
		go l.ListenJob(ctx, wg)

		if server != "" {
			client, err := dashboard.NewClient(apikey, server)
			if err != nil {
				slog.Error("could not init dashboard client", "err", err)
				return
			}
			wg.Add(1)
			go l.PublishJob(ctx, wg, client, dialect, 30*time.Second)
		}
		slog.Info("listening", "session", session, "pcap", pcapFile, "device", device, "port", listenPort)
	}

	<-term
}

// newListener returns nil when no packet source is configured.
func newListener(store *capture.Store, session, pcapFile, device string, port int) (*listener.Listener, error) {
	var source listener.PacketSource
	var err error
	switch {
	case pcapFile != "":
		source, err = listener.NewPacketSourceFile(pcapFile)
	case device != "":
		source, err = listener.NewPacketSourceLive(device)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return listener.NewListener(source, store, session, listener.WithPort(port))
}

func setupLogging(level string) error {
	var logLevel slog.Level
	err := logLevel.UnmarshalText([]byte(level))
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(h))
	return err
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
