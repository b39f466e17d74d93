// Package config handles configuration for the stall passport server:
// defaults, an optional JSON file, environment variables and command-line
// flags, applied in that order.
package config

import (
	"time"

	"github.com/dmitrijs2005/stallpass/internal/common"
)

// Config holds runtime settings for the server.
//
// Fields:
//   - EndpointAddrHTTP: bind address of the JSON API.
//   - EndpointAddrGRPC: bind address of the gRPC health service; "" or "off" disables it.
//   - SecretKey: HMAC secret for signing session JWTs (HS256).
//   - AdminKey: shared secret expected in the admin-key header.
//   - SessionTokenValidityDuration / VisitTokenValidityDuration: token lifetimes.
//   - AllowListSource: file path, http(s) URL or s3://bucket/key of approved emails.
//   - PasswordHashCost: bcrypt cost.
//   - RateLimitPerSecond / RateLimitBurst: per client IP; zero (the default) disables limiting.
//   - TrustProxyHeaders: key rate limiting on X-Forwarded-For; only behind a proxy that sets it.
//   - ExportBucket: when set, admin exports are archived there.
//   - S3*: S3-compatible object storage settings.
//   - OTLPEndpoint / OTLPInsecure: trace exporter; empty endpoint disables tracing.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	EndpointAddrHTTP             string
	EndpointAddrGRPC             string
	SecretKey                    string
	AdminKey                     string
	SessionTokenValidityDuration time.Duration
	VisitTokenValidityDuration   time.Duration
	AllowListSource              string
	PasswordHashCost             int
	RateLimitPerSecond           float64
	RateLimitBurst               int
	TrustProxyHeaders            bool
	ExportBucket                 string
	S3Region                     string
	S3BaseEndpoint               string
	S3RootUser                   string
	S3RootPassword               string
	OTLPEndpoint                 string
	OTLPInsecure                 bool
	LogLevel                     string
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey and AdminKey must be overridden outside development.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":10000"
	c.EndpointAddrGRPC = ":50051"
	c.SecretKey = "iria-secret-key"
	c.AdminKey = "iria-admin-key"
	c.SessionTokenValidityDuration = common.DefaultSessionTokenValidity
	c.VisitTokenValidityDuration = common.DefaultVisitTokenValidity
	c.AllowListSource = "registered_emails.txt"
	c.PasswordHashCost = 10
	c.RateLimitPerSecond = 0
	c.RateLimitBurst = 40
	c.TrustProxyHeaders = false
	c.ExportBucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""
	c.S3RootUser = ""
	c.S3RootPassword = ""
	c.OTLPEndpoint = ""
	c.OTLPInsecure = false
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// GRPCEnabled reports whether the gRPC health server should be started.
func (c *Config) GRPCEnabled() bool {
	return c.EndpointAddrGRPC != "" && c.EndpointAddrGRPC != "off"
}
