package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 3, cfg.WorkflowMaxDepth)
	assert.Equal(t, 5*time.Minute, cfg.RuleCacheTTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "POSTGRES")
	t.Setenv("WORKFLOW_MAX_DEPTH", "5")
	t.Setenv("RULE_CACHE_TTL", "30s")
	t.Setenv("SKIP_AUTH", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 5, cfg.WorkflowMaxDepth)
	assert.Equal(t, 30*time.Second, cfg.RuleCacheTTL)
	assert.True(t, cfg.SkipAuth)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.StoreDriver = "sqlite"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.WorkflowMaxDepth = 0
	assert.Error(t, cfg.Validate())
}
