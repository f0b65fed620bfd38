// Package config holds the server's boundary configuration: listen
// address, connection/session limits and default rate-limit parameters.
// Only the struct shape and a flag-based loader live here; richer loading
// (files, environment) belongs to the embedding binary.
package config

import (
	"flag"
	"fmt"
	"time"
)

// Config is the server's full boundary configuration.
type Config struct {
	Host string
	Port int

	MaxConnections     int
	SessionTimeoutSecs int
	RequireAuth        bool

	AuthBucketCapacity float64
	AuthRefillRate     float64
	GuestBucketCapacity float64
	GuestRefillRate     float64
}

// Default returns the server's out-of-the-box configuration.
func Default() Config {
	return Config{
		Host:                "0.0.0.0",
		Port:                8080,
		MaxConnections:      1000,
		SessionTimeoutSecs:  1800,
		RequireAuth:         false,
		AuthBucketCapacity:  60,
		AuthRefillRate:      1,
		GuestBucketCapacity: 30,
		GuestRefillRate:     0.5,
	}
}

// RegisterFlags binds c's fields to fs, defaulting to whatever c already
// holds (call on a Default() value before parsing).
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Host, "host", c.Host, "listen host")
	fs.IntVar(&c.Port, "port", c.Port, "listen port")
	fs.IntVar(&c.MaxConnections, "max-connections", c.MaxConnections, "maximum concurrent client connections")
	fs.IntVar(&c.SessionTimeoutSecs, "session-timeout-secs", c.SessionTimeoutSecs, "session idle timeout, in seconds")
	fs.BoolVar(&c.RequireAuth, "require-auth", c.RequireAuth, "reject unauthenticated game creation/join")
	fs.Float64Var(&c.AuthBucketCapacity, "auth-bucket-capacity", c.AuthBucketCapacity, "authenticated session token bucket capacity")
	fs.Float64Var(&c.AuthRefillRate, "auth-refill-rate", c.AuthRefillRate, "authenticated session token bucket refill rate, tokens/sec")
	fs.Float64Var(&c.GuestBucketCapacity, "guest-bucket-capacity", c.GuestBucketCapacity, "guest session token bucket capacity")
	fs.Float64Var(&c.GuestRefillRate, "guest-refill-rate", c.GuestRefillRate, "guest session token bucket refill rate, tokens/sec")
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%v:%v", c.Host, c.Port)
}

// SessionTimeout returns the session idle timeout as a time.Duration.
func (c Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutSecs) * time.Second
}
