package cmd

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-srg/minisearch/internal/metrics"
	"github.com/ca-srg/minisearch/internal/search"
)

func seedStats(t *testing.T, outcomes ...search.Outcome) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "stats.db")
	store, err := metrics.NewStore(dbPath)
	require.NoError(t, err)
	for _, outcome := range outcomes {
		require.NoError(t, store.Increment(outcome))
	}
	require.NoError(t, store.Close())
	return dbPath
}

func TestStatsTextOutput(t *testing.T) {
	ResetStatsState()
	t.Cleanup(ResetStatsState)
	statsDBPath = seedStats(t, search.OutcomeSingle, search.OutcomeSingle, search.OutcomeTimeout)

	var err error
	output := captureStdout(t, func() {
		err = runStats(statsCmd, nil)
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Total searches: 3")
	assert.Contains(t, output, "single")
	assert.Regexp(t, `timeout\s+1`, output)
	assert.Regexp(t, `busy\s+0`, output)
	assert.NotContains(t, output, "(no searches recorded)")
}

func TestStatsJSONOutput(t *testing.T) {
	ResetStatsState()
	t.Cleanup(ResetStatsState)
	statsDBPath = seedStats(t, search.OutcomeNoMatches, search.OutcomeMultiple)
	statsOutput = "json"

	var err error
	output := captureStdout(t, func() {
		err = runStats(statsCmd, nil)
	})
	require.NoError(t, err)

	var got statsReport
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, statsDBPath, got.Database)
	assert.Len(t, got.Totals, len(search.AllOutcomes))
	assert.Equal(t, int64(1), got.Totals[search.OutcomeNoMatches])
	assert.Equal(t, int64(1), got.Totals[search.OutcomeMultiple])
	assert.Equal(t, int64(0), got.Totals[search.OutcomeSingle])
	require.Len(t, got.Daily, 2)
	assert.Equal(t, search.OutcomeMultiple, got.Daily[0].Outcome)
}

func TestStatsEmptyDatabase(t *testing.T) {
	ResetStatsState()
	t.Cleanup(ResetStatsState)
	statsDBPath = seedStats(t)

	var err error
	output := captureStdout(t, func() {
		err = runStats(statsCmd, nil)
	})
	require.NoError(t, err)
	assert.Contains(t, output, "Total searches: 0")
	assert.Contains(t, output, "(no searches recorded)")
}

func TestStatsDisabled(t *testing.T) {
	ResetStatsState()
	t.Cleanup(ResetStatsState)
	t.Setenv("STATS_ENABLED", "false")

	err := runStats(statsCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}
