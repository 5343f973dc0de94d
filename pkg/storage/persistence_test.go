package storage_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rcastelli/plandb/pkg/domain"
	"github.com/rcastelli/plandb/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "snapshot"+storage.FileExtension)

	src := storage.NewStorageEngine()
	_, err := src.CreateIndex("orders", domain.IndexDef{Fields: []domain.IndexField{
		{Name: "customerId"},
		{Name: "orderDate", Desc: true},
	}})
	require.NoError(t, err)
	_, err = src.CreateIndex("sessions", domain.IndexDef{
		Fields:      []domain.IndexField{{Name: "createdAt"}},
		ExpireAfter: time.Hour,
	})
	require.NoError(t, err)

	_, err = src.Insert("orders", domain.Document{"_id": "o1", "customerId": "c1", "orderDate": "2026-03-01"})
	require.NoError(t, err)
	_, err = src.Insert("orders", domain.Document{"_id": "o2", "customerId": "c2", "orderDate": "2026-01-15"})
	require.NoError(t, err)
	_, err = src.Insert("sessions", domain.Document{"_id": "s1", "createdAt": time.Now().UTC()})
	require.NoError(t, err)

	require.NoError(t, src.SaveToFile(file))

	dst := storage.NewStorageEngine()
	require.NoError(t, dst.LoadFromFile(file))

	doc, err := dst.Get("orders", "o1")
	require.NoError(t, err)
	assert.Equal(t, "c1", doc["customerId"])

	// Index shapes travel with the snapshot and are rebuilt over the
	// restored documents.
	infos, err := dst.ListIndexes("orders")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "customerId_1_orderDate_-1", infos[0].Name)
	assert.Equal(t, 2, infos[0].Entries)

	infos, err = dst.ListIndexes("sessions")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, time.Hour, infos[0].ExpireAfter, "TTL survives the round trip")

	// Rebuilt indexes are planned against, not just listed
	plan, err := dst.Explain("orders", domain.QueryRequest{
		Filter: map[string]domain.Predicate{"customerId": {Eq: "c1"}},
	})
	require.NoError(t, err)
	assert.False(t, plan.FullScan)
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	engine := storage.NewStorageEngine()
	err := engine.LoadFromFile(filepath.Join(t.TempDir(), "nope"+storage.FileExtension))
	assert.NoError(t, err)
}

func TestLoadRejectsForeignFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "garbage"+storage.FileExtension)
	require.NoError(t, os.WriteFile(file, []byte("not a snapshot at all"), 0o644))

	engine := storage.NewStorageEngine()
	err := engine.LoadFromFile(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file header")
}

func TestSaveWithoutConfiguredFileFails(t *testing.T) {
	engine := storage.NewStorageEngine()
	assert.Error(t, engine.SaveToFile(""))
	assert.Error(t, engine.LoadFromFile(""))
}

func TestHeaderFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, storage.WriteHeader(&buf))
	assert.Equal(t, []byte(storage.MagicBytes), buf.Bytes()[:4])

	header, err := storage.ReadHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(storage.FormatVersion), header.Version)

	// A future format version is refused rather than misread
	bad := bytes.NewBuffer([]byte{'P', 'L', 'D', 'B', 99, 0, 0, 0})
	_, err = storage.ReadHeader(bad)
	assert.Error(t, err)
}
