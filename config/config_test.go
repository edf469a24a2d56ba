package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "auto", cfg.LLM.Provider)
	assert.Equal(t, "+91", cfg.OTP.CountryCode)
	assert.Equal(t, 30*time.Second, cfg.OTP.ResendInterval)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "slog", cfg.Log.Backend)
	assert.Equal(t, 6, cfg.Flow.MaxHops)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loanmesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
  read_timeout: 5s
llm:
  provider: mock
store:
  driver: sqlite
otp:
  resend_burst: 2
flow:
  max_hops: 4
`), 0o600))

	t.Setenv("LOANMESH_SERVER_ADDR", ":7070")
	t.Setenv("LOANMESH_LOG_BACKEND", "zap")
	t.Setenv("LOANMESH_CRM_CUSTOMERS_FILE", "/tmp/customers.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "data/loanmesh.db", cfg.Store.Path)
	assert.Equal(t, 2, cfg.OTP.ResendBurst)
	assert.Equal(t, 4, cfg.Flow.MaxHops)
	assert.Equal(t, "zap", cfg.Log.Backend)
	assert.Equal(t, "/tmp/customers.yaml", cfg.CRM.CustomersFile)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("LOANMESH_STORE_DRIVER", "postgres")
	t.Setenv("LOANMESH_LLM_PROVIDER", "cohere")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
	assert.Contains(t, err.Error(), "llm.provider")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "server.read_timeout", envKey("LOANMESH_SERVER_READ_TIMEOUT"))
	assert.Equal(t, "flow.max_hops", envKey("LOANMESH_FLOW_MAX_HOPS"))
	assert.Equal(t, "debug", envKey("LOANMESH_DEBUG"))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Flow.MaxHops = 0
	cfg.OTP.CountryCode = "91"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flow.max_hops")
	assert.Contains(t, err.Error(), "otp.country_code")
}
