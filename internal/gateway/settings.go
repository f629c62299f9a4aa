package gateway

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/guildhall/internal/config"
)

const (
	// DefaultHost is the loopback interface used when no host is configured.
	DefaultHost = "127.0.0.1"
	// DefaultPort is the gateway's default TCP port.
	DefaultPort = 8787
	// DefaultMaxBodyBytes limits JSON request payloads to 1 MB.
	DefaultMaxBodyBytes int64 = 1 << 20
	// DefaultReadHeaderTimeout guards hung clients.
	DefaultReadHeaderTimeout = 15 * time.Second
	// DefaultIdleTimeout bounds keep-alive connections.
	DefaultIdleTimeout = 60 * time.Second
)

// Settings captures runtime configuration for the gateway HTTP server.
// There is deliberately no write timeout: meeting responses are event
// streams that stay open for an entire agent turn.
type Settings struct {
	Host              string
	Port              int
	MaxBodyBytes      int64
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
}

// SettingsFromConfig builds Settings from the resolved guildhall config.
func SettingsFromConfig(cfg *config.Config) Settings {
	settings := Settings{
		Host:              DefaultHost,
		Port:              DefaultPort,
		MaxBodyBytes:      DefaultMaxBodyBytes,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}
	if cfg != nil {
		if host := strings.TrimSpace(cfg.ListenHost); host != "" {
			settings.Host = host
		}
		if isValidPort(cfg.ListenPort) {
			settings.Port = cfg.ListenPort
		}
	}
	settings.normalize()
	return settings
}

func (s *Settings) normalize() {
	if s == nil {
		return
	}
	s.Host = strings.TrimSpace(s.Host)
	if s.Host == "" {
		s.Host = DefaultHost
	}
	if !isValidPort(s.Port) && s.Port != 0 {
		s.Port = DefaultPort
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if s.ReadHeaderTimeout <= 0 {
		s.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
}

// Address returns the TCP bind address in host:port form.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}
