package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// dotEnvFile is read as a fallback for variables missing from the real
// environment.
var dotEnvFile = ".env"

// parseEnv overlays the environment variables the deployment platform sets.
// PORT may be a bare port number, which is turned into ":PORT".
func parseEnv(config *Config) {
	lookup := envLookup(readDotEnv(dotEnvFile))

	if port, ok := lookup("PORT"); ok {
		if !strings.Contains(port, ":") {
			port = ":" + port
		}
		config.EndpointAddrHTTP = port
	}
	if v, ok := lookup("GRPC_ADDR"); ok {
		config.EndpointAddrGRPC = v
	}
	if v, ok := lookup("JWT_SECRET"); ok {
		config.SecretKey = v
	}
	if v, ok := lookup("ADMIN_KEY"); ok {
		config.AdminKey = v
	}
	if v, ok := lookup("ALLOWLIST_SOURCE"); ok {
		config.AllowListSource = v
	}
	if v, ok := lookup("EXPORT_BUCKET"); ok {
		config.ExportBucket = v
	}
	if v, ok := lookup("S3_REGION"); ok {
		config.S3Region = v
	}
	if v, ok := lookup("S3_ENDPOINT"); ok {
		config.S3BaseEndpoint = v
	}
	if v, ok := lookup("S3_ACCESS_KEY"); ok {
		config.S3RootUser = v
	}
	if v, ok := lookup("S3_SECRET_KEY"); ok {
		config.S3RootPassword = v
	}
	if v, ok := lookup("OTEL_EXPORTER_OTLP_ENDPOINT"); ok {
		config.OTLPEndpoint = v
	}
	if v, ok := lookup("OTEL_EXPORTER_OTLP_INSECURE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.OTLPInsecure = b
		}
	}
	if v, ok := lookup("TRUST_PROXY_HEADERS"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.TrustProxyHeaders = b
		}
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		config.LogLevel = v
	}
}

// envLookup resolves a key from the process environment, then from
// fallback. Set-but-blank variables count as unset.
func envLookup(fallback map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v, true
		}
		v := strings.TrimSpace(fallback[key])
		return v, v != ""
	}
}

// readDotEnv parses path without touching the process environment. A
// missing file yields nil; a malformed one is reported and ignored.
func readDotEnv(path string) map[string]string {
	if path == "" {
		return nil
	}
	vals, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "ignoring %s: %v\n", path, err)
		}
		return nil
	}
	return vals
}
