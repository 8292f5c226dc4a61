package backend

import (
	"context"
	"testing"

	"go-crm-core/internal/config"
	"go-crm-core/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestOpenMemory(t *testing.T) {
	s, err := Open(context.Background(), config.Default(), nil, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)
}

func TestOpenWithoutConnection(t *testing.T) {
	for _, driver := range []string{config.DriverMongo, config.DriverPostgres} {
		cfg := config.Default()
		cfg.StoreDriver = driver
		_, err := Open(context.Background(), cfg, nil, nil, zaptest.NewLogger(t))
		assert.ErrorIs(t, err, errNotConnected, driver)
	}

	cfg := config.Default()
	cfg.StoreDriver = "sqlite"
	_, err := Open(context.Background(), cfg, nil, nil, zaptest.NewLogger(t))
	assert.Error(t, err)
}
