package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"JSONAPI_PRIMARY__ENV":          "local",
		"JSONAPI_SERVER__PORT":          "8080",
		"JSONAPI_SERVER__READ_TIMEOUT":  "5",
		"JSONAPI_SERVER__WRITE_TIMEOUT": "10",
		"JSONAPI_SERVER__IDLE_TIMEOUT":  "60",
		"JSONAPI_DATABASE__HOST":        "localhost",
		"JSONAPI_DATABASE__PORT":        "5432",
		"JSONAPI_DATABASE__USER":        "devel",
		"JSONAPI_DATABASE__PASSWORD":    "p@ss:word",
		"JSONAPI_DATABASE__NAME":        "petshop",
		"JSONAPI_DATABASE__SSL_MODE":    "disable",
		"JSONAPI_DATABASE__MAX_CONNS":   "8",
		"JSONAPI_SCHEMA__PATH":          "schema.json",
	} {
		t.Setenv(k, v)
	}
}

func TestLoad(t *testing.T) {
	setValidEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Primary.Env)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.EqualValues(t, 8, cfg.Database.MaxConns)
	assert.Equal(t, "schema.json", cfg.Schema.Path)
	assert.Equal(t, "info", cfg.Log.Level)

	read, write, idle := cfg.Server.Timeouts()
	assert.Equal(t, 5*time.Second, read)
	assert.Equal(t, 10*time.Second, write)
	assert.Equal(t, time.Minute, idle)
}

func TestLoadMissingRequired(t *testing.T) {
	setValidEnv(t)
	t.Setenv("JSONAPI_SCHEMA__PATH", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	setValidEnv(t)
	t.Setenv("JSONAPI_LOG__LEVEL", "loud")

	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: 5432, User: "devel", Password: "p@ss:word", Name: "petshop", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://devel:p%40ss%3Aword@db:5432/petshop?sslmode=disable", c.DSN())
}
