package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	require.NoError(t, rootCmd.PersistentFlags().Set("driver", ""))
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestSeedWorkflowsOnMemory(t *testing.T) {
	assert.Equal(t, "seeded 3 workflow rule(s)\n", run(t, "seed-workflows"))
}

func TestMaintenanceCommandsOnEmptyStore(t *testing.T) {
	assert.Equal(t, "scanned 0 lead(s), rescored 0\n", run(t, "rescore-leads"))
	assert.Equal(t, "scanned 0 task(s), rescored 0, escalated 0\n", run(t, "sweep-tasks"))
	assert.Equal(t, "memory store has no schema\n", run(t, "migrate"))
}

func TestDriverFlagIsValidated(t *testing.T) {
	t.Cleanup(func() { _ = rootCmd.PersistentFlags().Set("driver", "") })
	rootCmd.SetArgs([]string{"migrate", "--driver", "sqlite"})
	assert.Error(t, rootCmd.Execute())
}
