// Rendezvous relay server.
//
// Pairs a sender and its receivers by a short room id and forwards opaque
// frames between them. All state is memory-only; a restart clears every
// room. Exposed over two interchangeable transports: WebSocket and
// length-prefixed TCP.
package main

import (
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keniprimo/rendezvous-relay/internal/config"
	"github.com/keniprimo/rendezvous-relay/internal/logs"
	"github.com/keniprimo/rendezvous-relay/internal/metrics"
	"github.com/keniprimo/rendezvous-relay/internal/ratelimit"
	"github.com/keniprimo/rendezvous-relay/internal/room"
	"github.com/keniprimo/rendezvous-relay/internal/server"
	"github.com/keniprimo/rendezvous-relay/internal/websocket"
)

// sweepInterval bounds how often the TTL sweeper reaps abandoned rooms.
const sweepInterval = 60 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		panic(err)
	}

	log := logs.New(cfg.LogLevel)
	defer log.Sync()

	metrics.Init()

	registry := room.NewRegistry(cfg.MaxRooms, cfg.RoomTTL)
	limiter := ratelimit.New(cfg.RateLimitWindow, cfg.RateLimitMax)

	srv := &server.Server{
		Registry:       registry,
		Limiter:        limiter,
		MaxMsgSize:     cfg.MaxMsgSize,
		RelayRateLimit: cfg.RelayRateLimit,
		Log:            log,
	}

	go sweepLoop(registry, log)
	go runTCPListener(srv, cfg, log)
	go runMetricsServer(cfg.MetricsAddr, log)

	wsHandler := websocket.NewHandler(srv, int64(cfg.MaxMsgSize), log)
	mux := http.NewServeMux()
	mux.Handle("/", wsHandler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpSrv := &http.Server{
		Addr:    cfg.BindAddr(),
		Handler: logs.RequestLogger(log, mux),
	}
	if !cfg.Insecure {
		httpSrv.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS13,
			CipherSuites: []uint16{
				tls.TLS_AES_256_GCM_SHA384,
				tls.TLS_CHACHA20_POLY1305_SHA256,
			},
		}
	}

	go waitForShutdown(log)

	log.Info("websocket listener starting",
		logs.F("addr", cfg.BindAddr()),
		logs.F("insecure", cfg.Insecure),
	)

	if cfg.Insecure {
		err = httpSrv.ListenAndServe()
	} else {
		err = httpSrv.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
	}
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("websocket listener stopped", logs.F("err", err.Error()))
	}
}

func runTCPListener(srv *server.Server, cfg config.Config, log logs.Logger) {
	if err := srv.ListenTCP(cfg.TCPAddr, uint32(cfg.MaxMsgSize)); err != nil {
		log.Fatal("tcp listener stopped", logs.F("err", err.Error()))
	}
}

func runMetricsServer(addr string, log logs.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	log.Info("metrics listener starting", logs.F("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics listener stopped", logs.F("err", err.Error()))
	}
}

// sweepLoop periodically closes every room whose age has exceeded the
// registry's TTL, releasing senders that went idle (or vanished) without a
// clean disconnect ever reaching the transport layer.
func sweepLoop(registry *room.Registry, log logs.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		for _, r := range registry.SweepExpired() {
			r.Close()
			metrics.TTLEvictions.Inc()
			log.Info("room evicted by ttl sweep", logs.F("room_id_prefix", r.ID[:2]))
		}
	}
}

func waitForShutdown(log logs.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down")
	os.Exit(0)
}
