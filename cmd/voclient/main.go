// Command voclient runs the headless chat-and-voice client runtime:
// it connects to the configured server, resumes any persisted session
// and keeps the local stores in sync until interrupted.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voclink/voclink/pkg/backendws"
	"github.com/voclink/voclink/pkg/client"
)

func main() {
	configPath := flag.String("config", "~/.voclink/config.toml", "Path to config file")
	serverAddr := flag.String("server", "", "Server address (overrides config)")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	config, err := client.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	addr := config.Server.Address
	if *serverAddr != "" {
		addr = *serverAddr
	}

	var logger *log.Logger
	if *verbose {
		logger = log.New(os.Stderr, "[voclient] ", log.LstdFlags)
	}

	state, err := client.OpenState(client.ExpandPath(config.State.DatabasePath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening state: %v\n", err)
		os.Exit(1)
	}
	defer state.Close()

	var metrics *client.Metrics
	if config.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		metrics = client.NewMetrics(registry)

		// Internal only - never expose publicly
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			listenAddr := fmt.Sprintf("127.0.0.1:%d", config.Metrics.Port)
			log.Printf("Metrics server listening on %s (/metrics)", listenAddr)
			if err := http.ListenAndServe(listenAddr, mux); err != nil {
				log.Printf("Metrics server error: %v", err)
			}
		}()
	}

	backend := backendws.New()
	backend.SetCallTimeout(config.CallTimeout())
	if logger != nil {
		backend.SetLogger(logger)
	}

	runtime, err := client.New(backend, state, client.Options{
		Logger:     logger,
		Metrics:    metrics,
		RetryDelay: config.RetryDelay(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating client: %v\n", err)
		os.Exit(1)
	}

	runtime.ConnectionManager().OnStateChange(func(state client.ConnectionState) {
		log.Printf("Connection state: %s", state)
	})

	runtime.Start()
	runtime.Connect(addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Printf("Shutting down...")
	runtime.Close()
}
