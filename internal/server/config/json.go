package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/stallpass/internal/flagx"
	"github.com/dmitrijs2005/stallpass/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Every field is
// optional: pointers and zero durations mean "keep the current value".
type JsonConfig struct {
	EndpointAddrHTTP             *string        `json:"endpoint_addr_http"`
	EndpointAddrGRPC             *string        `json:"endpoint_addr_grpc"`
	SecretKey                    *string        `json:"secret_key"`
	AdminKey                     *string        `json:"admin_key"`
	SessionTokenValidityDuration timex.Duration `json:"session_token_validity_duration"`
	VisitTokenValidityDuration   timex.Duration `json:"visit_token_validity_duration"`
	AllowListSource              *string        `json:"allowlist_source"`
	PasswordHashCost             *int           `json:"password_hash_cost"`
	RateLimitPerSecond           *float64       `json:"rate_limit_per_second"`
	RateLimitBurst               *int           `json:"rate_limit_burst"`
	TrustProxyHeaders            *bool          `json:"trust_proxy_headers"`
	ExportBucket                 *string        `json:"export_bucket"`
	S3Region                     *string        `json:"s3_region"`
	S3BaseEndpoint               *string        `json:"s3_base_endpoint"`
	S3RootUser                   *string        `json:"s3_root_user"`
	S3RootPassword               *string        `json:"s3_root_password"`
	OTLPEndpoint                 *string        `json:"otlp_endpoint"`
	OTLPInsecure                 *bool          `json:"otlp_insecure"`
	LogLevel                     *string        `json:"log_level"`
}

// parseJson overlays values from the file named by -c / -config. Without
// the flag nothing happens; an unreadable or invalid file panics, since the
// operator explicitly asked for it.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.AdminKey, c.AdminKey)
	if c.SessionTokenValidityDuration.Duration > 0 {
		config.SessionTokenValidityDuration = c.SessionTokenValidityDuration.Duration
	}
	if c.VisitTokenValidityDuration.Duration > 0 {
		config.VisitTokenValidityDuration = c.VisitTokenValidityDuration.Duration
	}
	setString(&config.AllowListSource, c.AllowListSource)
	if c.PasswordHashCost != nil {
		config.PasswordHashCost = *c.PasswordHashCost
	}
	if c.RateLimitPerSecond != nil {
		config.RateLimitPerSecond = *c.RateLimitPerSecond
	}
	if c.RateLimitBurst != nil {
		config.RateLimitBurst = *c.RateLimitBurst
	}
	if c.TrustProxyHeaders != nil {
		config.TrustProxyHeaders = *c.TrustProxyHeaders
	}
	setString(&config.ExportBucket, c.ExportBucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.OTLPEndpoint, c.OTLPEndpoint)
	if c.OTLPInsecure != nil {
		config.OTLPInsecure = *c.OTLPInsecure
	}
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
