package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("GRPC_ADDR", "off")
	t.Setenv("JWT_SECRET", "jwt")
	t.Setenv("ADMIN_KEY", "adm")
	t.Setenv("ALLOWLIST_SOURCE", "s3://conf/emails.txt")
	t.Setenv("EXPORT_BUCKET", "exports")
	t.Setenv("S3_ENDPOINT", "http://127.0.0.1:9000")
	t.Setenv("S3_ACCESS_KEY", "minio")
	t.Setenv("S3_SECRET_KEY", "minio123")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
	assert.False(t, c.GRPCEnabled())
	assert.Equal(t, "jwt", c.SecretKey)
	assert.Equal(t, "adm", c.AdminKey)
	assert.Equal(t, "s3://conf/emails.txt", c.AllowListSource)
	assert.Equal(t, "exports", c.ExportBucket)
	assert.Equal(t, "us-east-1", c.S3Region)
	assert.Equal(t, "http://127.0.0.1:9000", c.S3BaseEndpoint)
	assert.Equal(t, "minio", c.S3RootUser)
	assert.Equal(t, "minio123", c.S3RootPassword)
	assert.Equal(t, "collector:4317", c.OTLPEndpoint)
	assert.True(t, c.OTLPInsecure)
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.TrustProxyHeaders)
}

func TestParseEnv_PortWithHost(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:7000")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, "127.0.0.1:7000", c.EndpointAddrHTTP)
}

func TestParseEnv_BlankKeepsDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "   ")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, "iria-secret-key", c.SecretKey)
}

func TestParseEnv_DotEnvFallback(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ADMIN_KEY=from-file\nJWT_SECRET=file-secret\n# comment\nPORT=9000\n"), 0o600))

	orig := dotEnvFile
	dotEnvFile = path
	t.Cleanup(func() { dotEnvFile = orig })

	t.Setenv("JWT_SECRET", "env-secret")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, "from-file", c.AdminKey)
	assert.Equal(t, "env-secret", c.SecretKey, "real environment wins")
	assert.Equal(t, ":9000", c.EndpointAddrHTTP)
	_, set := os.LookupEnv("ADMIN_KEY")
	assert.True(t, set)
	assert.Empty(t, os.Getenv("ADMIN_KEY"), "process environment untouched")
}

func TestReadDotEnv_Missing(t *testing.T) {
	assert.Nil(t, readDotEnv(filepath.Join(t.TempDir(), "nope.env")))
	assert.Nil(t, readDotEnv(""))
}
