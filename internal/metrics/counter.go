package metrics

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ca-srg/minisearch/internal/search"
)

var (
	globalStore *Store
	storeMu     sync.RWMutex
)

// Init opens the global stats store at dbPath.
// Calling it again while a store is open is a no-op.
func Init(dbPath string) error {
	storeMu.Lock()
	defer storeMu.Unlock()

	if globalStore != nil {
		return nil
	}
	store, err := NewStore(dbPath)
	if err != nil {
		log.Warn().Err(err).Str("path", dbPath).Msg("metrics: failed to initialize stats store")
		return err
	}
	globalStore = store
	return nil
}

// RecordOutcome increments the persisted count for outcome.
// If the store is not initialized, this is a no-op.
func RecordOutcome(outcome search.Outcome) {
	storeMu.RLock()
	store := globalStore
	storeMu.RUnlock()
	if store == nil {
		return
	}

	if err := store.Increment(outcome); err != nil {
		log.Warn().Err(err).Str("outcome", string(outcome)).Msg("metrics: failed to record search")
	}
}

// GetStats returns the cumulative counts for all outcomes.
// Returns nil if the store is not initialized.
func GetStats() map[search.Outcome]int64 {
	storeMu.RLock()
	store := globalStore
	storeMu.RUnlock()
	if store == nil {
		return nil
	}

	stats, err := store.GetAllTotals()
	if err != nil {
		log.Warn().Err(err).Msg("metrics: failed to get stats")
		return nil
	}
	return stats
}

// Close closes the global store.
func Close() error {
	storeMu.Lock()
	defer storeMu.Unlock()

	if globalStore == nil {
		return nil
	}
	err := globalStore.Close()
	globalStore = nil
	return err
}

// SetStoreForTesting sets the global store instance for testing purposes.
func SetStoreForTesting(store *Store) {
	storeMu.Lock()
	defer storeMu.Unlock()
	globalStore = store
}

// ResetForTesting closes and clears the global store.
func ResetForTesting() {
	_ = Close()
}
