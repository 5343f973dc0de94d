package storage_test

import (
	"testing"
	"time"

	"github.com/rcastelli/plandb/pkg/domain"
	"github.com/rcastelli/plandb/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ttlIndex(field string, expireAfter time.Duration) domain.IndexDef {
	return domain.IndexDef{
		Fields:      []domain.IndexField{{Name: field}},
		ExpireAfter: expireAfter,
	}
}

func TestSweepRemovesExpiredDocuments(t *testing.T) {
	engine := storage.NewStorageEngine()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	_, err := engine.CreateIndex("sessions", ttlIndex("createdAt", time.Hour))
	require.NoError(t, err)

	_, err = engine.Insert("sessions", domain.Document{"_id": "stale", "createdAt": now.Add(-2 * time.Hour)})
	require.NoError(t, err)
	_, err = engine.Insert("sessions", domain.Document{"_id": "fresh", "createdAt": now.Add(-10 * time.Minute)})
	require.NoError(t, err)
	_, err = engine.Insert("sessions", domain.Document{"_id": "nodate", "note": "never expires"})
	require.NoError(t, err)

	reaped := engine.Sweep(now)
	assert.Equal(t, 1, reaped)

	_, err = engine.Get("sessions", "stale")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = engine.Get("sessions", "fresh")
	assert.NoError(t, err)
	_, err = engine.Get("sessions", "nodate")
	assert.NoError(t, err)
}

func TestSweepNeverDeletesBeforeExpiry(t *testing.T) {
	engine := storage.NewStorageEngine()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	_, err := engine.CreateIndex("sessions", ttlIndex("createdAt", time.Hour))
	require.NoError(t, err)

	// One nanosecond short of expiry
	_, err = engine.Insert("sessions", domain.Document{
		"_id":       "s1",
		"createdAt": now.Add(-time.Hour).Add(time.Nanosecond),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, engine.Sweep(now))
	_, err = engine.Get("sessions", "s1")
	assert.NoError(t, err)

	// The next sweep after expiry removes it
	assert.Equal(t, 1, engine.Sweep(now.Add(time.Minute)))
}

func TestSweepIndexEntriesCleaned(t *testing.T) {
	engine := storage.NewStorageEngine()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	_, err := engine.CreateIndex("sessions", ttlIndex("createdAt", time.Hour))
	require.NoError(t, err)
	_, err = engine.CreateIndex("sessions", domain.IndexDef{
		Fields: []domain.IndexField{{Name: "user"}},
	})
	require.NoError(t, err)

	_, err = engine.Insert("sessions", domain.Document{
		"_id":       "s1",
		"user":      "alice",
		"createdAt": now.Add(-2 * time.Hour),
	})
	require.NoError(t, err)

	require.Equal(t, 1, engine.Sweep(now))

	// The expired document left no entries behind in any index
	infos, err := engine.ListIndexes("sessions")
	require.NoError(t, err)
	for _, info := range infos {
		assert.Equal(t, 0, info.Entries, "index %s", info.Name)
	}
}

func TestBackgroundReaperLifecycle(t *testing.T) {
	engine := storage.NewStorageEngine(storage.WithTTLSweepInterval(10 * time.Millisecond))

	_, err := engine.CreateIndex("sessions", ttlIndex("createdAt", time.Millisecond))
	require.NoError(t, err)
	_, err = engine.Insert("sessions", domain.Document{"_id": "s1", "createdAt": time.Now().Add(-time.Minute)})
	require.NoError(t, err)

	engine.StartBackgroundWorkers()

	// Expired documents disappear within a bounded number of intervals
	assert.Eventually(t, func() bool {
		_, err := engine.Get("sessions", "s1")
		return err != nil
	}, time.Second, 5*time.Millisecond)

	engine.StopBackgroundWorkers()
	// Stop is idempotent
	engine.StopBackgroundWorkers()
}
