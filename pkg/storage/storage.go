package storage

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rcastelli/plandb/pkg/accounting"
	"github.com/rcastelli/plandb/pkg/domain"
	"github.com/rcastelli/plandb/pkg/indexing"
	"github.com/rcastelli/plandb/pkg/planner"
)

// collection holds one collection's documents. The xsync map gives
// lock-free concurrent reads; mutations of a single document are
// serialized by the engine's per-key locks, and stored documents are
// replaced wholesale on update so readers never observe a torn state.
type collection struct {
	name     string
	docs     *xsync.MapOf[string, domain.Document]
	docCount atomic.Int64
	nextID   atomic.Int64

	// buildMu serializes index builds against document mutations, so a
	// full build sees a consistent snapshot. Ordinary writes share it.
	buildMu sync.RWMutex
}

func newCollection(name string) *collection {
	return &collection{
		name: name,
		docs: xsync.NewMapOf[string, domain.Document](),
	}
}

// snapshotDocs copies the current documents into a plain map, for index
// builds and persistence. Callers must hold buildMu.
func (c *collection) snapshotDocs() map[string]domain.Document {
	out := make(map[string]domain.Document, c.docCount.Load())
	c.docs.Range(func(id string, doc domain.Document) bool {
		out[id] = doc
		return true
	})
	return out
}

// StorageEngine is the index-aware document store core: it owns document
// lifecycle and drives index maintenance, planning, TTL expiry and
// write-cost accounting. It implements domain.DocumentStore.
type StorageEngine struct {
	mu          sync.RWMutex // guards the collections map
	collections map[string]*collection

	keyLocks *xsync.MapOf[string, *sync.Mutex]

	indexes *indexing.Manager
	costs   *accounting.Accountant
	planner *planner.Planner

	// Configuration
	sweepInterval time.Duration
	planCacheSize int
	dataFile      string

	// Background workers
	backgroundWg sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
}

// NewStorageEngine creates a new storage engine.
func NewStorageEngine(options ...StorageOption) *StorageEngine {
	engine := &StorageEngine{
		collections:   make(map[string]*collection),
		keyLocks:      xsync.NewMapOf[string, *sync.Mutex](),
		costs:         accounting.NewAccountant(),
		sweepInterval: time.Minute,
		stopChan:      make(chan struct{}),
	}

	for _, option := range options {
		option(engine)
	}

	engine.indexes = indexing.NewManager(engine.costs)
	engine.planner = planner.New(engine.planCacheSize)
	return engine
}

var _ domain.DocumentStore = (*StorageEngine)(nil)

// getCollection returns an existing collection.
func (se *StorageEngine) getCollection(collName string) (*collection, error) {
	se.mu.RLock()
	defer se.mu.RUnlock()
	coll, ok := se.collections[collName]
	if !ok {
		return nil, fmt.Errorf("collection %q does not exist", collName)
	}
	return coll, nil
}

// getOrCreateCollection returns the collection, creating it on first use.
func (se *StorageEngine) getOrCreateCollection(collName string) *collection {
	se.mu.RLock()
	if coll, ok := se.collections[collName]; ok {
		se.mu.RUnlock()
		return coll
	}
	se.mu.RUnlock()

	se.mu.Lock()
	defer se.mu.Unlock()
	if coll, ok := se.collections[collName]; ok {
		return coll
	}
	coll := newCollection(collName)
	se.collections[collName] = coll
	return coll
}

// keyLock returns the mutex serializing mutations of one document key.
// The lock covers the document mutation and its index maintenance, so no
// reader observes a document whose index entries are partially updated.
func (se *StorageEngine) keyLock(collName, docID string) *sync.Mutex {
	lock, _ := se.keyLocks.LoadOrCompute(collName+"\x00"+docID, func() *sync.Mutex {
		return &sync.Mutex{}
	})
	return lock
}

// WriteCosts returns the cumulative index entries written per index for
// the collection.
func (se *StorageEngine) WriteCosts(collName string) map[string]int64 {
	return se.costs.Report(collName)
}

// Accountant exposes the engine's write-cost accountant.
func (se *StorageEngine) Accountant() *accounting.Accountant {
	return se.costs
}
