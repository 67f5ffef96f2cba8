// Package config loads the relay's configuration record from flags, with
// each flag falling back to an environment variable default before its
// hardcoded default.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full set of tunables a running relay needs. Every field is
// overridable by both a command-line flag and an environment variable; the
// flag wins if both are set.
type Config struct {
	Host    string
	Port    int
	TCPAddr string

	MaxRooms        int
	RoomTTL         time.Duration
	MaxMsgSize      int
	RateLimitMax    int
	RateLimitWindow time.Duration
	RelayRateLimit  int

	MetricsAddr string
	LogLevel    string

	Insecure bool
	CertFile string
	KeyFile  string
}

// BindAddr returns the WebSocket listener's host:port.
func (c Config) BindAddr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// Load parses flags (falling back to environment variables, then the
// defaults below) into a Config. Call Validate on the result before use.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("relay", flag.ContinueOnError)

	host := fs.String("host", getenv("RELAY_HOST", "0.0.0.0"), "WebSocket listen address")
	port := fs.Int("port", getenvInt("RELAY_PORT", 9784), "WebSocket listen port")
	tcpAddr := fs.String("tcp-addr", getenv("RELAY_TCP_ADDR", ":9785"), "Length-prefixed TCP listen address")

	maxRooms := fs.Int("max-rooms", getenvInt("RELAY_MAX_ROOMS", 1000), "Hard cap on concurrent rooms")
	roomTTL := fs.Duration("room-ttl", getenvDur("RELAY_ROOM_TTL", 1800*time.Second), "Max room age before eviction")
	maxMsgSize := fs.Int("max-msg-size", getenvInt("RELAY_MAX_MSG_SIZE", 10<<20), "Per-frame ceiling in bytes")
	rateLimitMax := fs.Int("rate-limit-max", getenvInt("RELAY_RATE_LIMIT_MAX", 20), "Admissions per window per peer address")
	rateLimitWindow := fs.Duration("rate-limit-window", getenvDur("RELAY_RATE_LIMIT_WINDOW", 60*time.Second), "Sliding window width")
	relayRateLimit := fs.Int("relay-rate-limit", getenvInt("RELAY_RATE_LIMIT", 0), "Optional per-direction relay throughput cap, messages/sec (0 disables)")

	metricsAddr := fs.String("metrics-addr", getenv("RELAY_METRICS_ADDR", ":9090"), "Internal Prometheus /metrics listener")
	logLevel := fs.String("log-level", getenv("RELAY_LOG_LEVEL", "info"), "zap log level")

	insecure := fs.Bool("insecure", getenvBool("RELAY_INSECURE", false), "Run without TLS (development only)")
	certFile := fs.String("cert", getenv("RELAY_CERT", ""), "TLS certificate file")
	keyFile := fs.String("key", getenv("RELAY_KEY", ""), "TLS key file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Host:            *host,
		Port:            *port,
		TCPAddr:         *tcpAddr,
		MaxRooms:        *maxRooms,
		RoomTTL:         *roomTTL,
		MaxMsgSize:      *maxMsgSize,
		RateLimitMax:    *rateLimitMax,
		RateLimitWindow: *rateLimitWindow,
		RelayRateLimit:  *relayRateLimit,
		MetricsAddr:     *metricsAddr,
		LogLevel:        *logLevel,
		Insecure:        *insecure,
		CertFile:        *certFile,
		KeyFile:         *keyFile,
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MaxRooms <= 0 {
		return fmt.Errorf("max-rooms must be > 0")
	}
	if c.RoomTTL <= 0 {
		return fmt.Errorf("room-ttl must be > 0")
	}
	if c.MaxMsgSize <= 0 {
		return fmt.Errorf("max-msg-size must be > 0")
	}
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("rate-limit-max must be > 0")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("rate-limit-window must be > 0")
	}
	if !c.Insecure && (c.CertFile == "") != (c.KeyFile == "") {
		return fmt.Errorf("both cert and key must be set, or neither")
	}
	if !c.Insecure && c.CertFile == "" && c.KeyFile == "" {
		return fmt.Errorf("TLS cert and key required (use -insecure for development)")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getenvBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
