package storage

import (
	"errors"
	"log"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rcastelli/plandb/pkg/domain"
)

var (
	ttlSweeps = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "plandb",
		Subsystem: "ttl",
		Name:      "sweeps_total",
	})
	ttlReaped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plandb",
		Subsystem: "ttl",
		Name:      "reaped_total",
	}, []string{"collection"})
)

// Collectors returns the storage package's prometheus collectors for
// registration by the serving layer.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{ttlSweeps, ttlReaped}
}

// StartBackgroundWorkers starts the TTL reaper. Expired documents are
// removed within at most one sweep interval after expiry, never before
// it.
func (se *StorageEngine) StartBackgroundWorkers() {
	if se.sweepInterval <= 0 {
		log.Printf("WARN: TTL reaper disabled - expired documents will not be removed")
		return
	}

	se.backgroundWg.Add(1)
	go func() {
		defer se.backgroundWg.Done()
		ticker := time.NewTicker(se.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				se.Sweep(time.Now())
			case <-se.stopChan:
				return
			}
		}
	}()
}

// StopBackgroundWorkers stops the TTL reaper and waits for it to exit.
func (se *StorageEngine) StopBackgroundWorkers() {
	se.stopOnce.Do(func() {
		close(se.stopChan)
	})
	se.backgroundWg.Wait()
}

// Sweep removes every document past its TTL as of now. Deletions go
// through the same per-key path as client deletes, so a sweep never
// races a concurrent mutation into an inconsistent index state. Failures
// on individual documents (for example, deleted by a client between
// collection and removal) are logged and swallowed, never aborting the
// sweep.
func (se *StorageEngine) Sweep(now time.Time) int {
	ttlSweeps.Inc()

	reaped := 0
	for _, collName := range se.indexes.Collections() {
		for _, docID := range se.indexes.Expired(collName, now) {
			if err := se.Delete(collName, docID); err != nil {
				var notFound *domain.NotFoundError
				if !errors.As(err, &notFound) {
					log.Printf("WARN: TTL sweep could not delete %q from %q: %v", docID, collName, err)
				}
				continue
			}
			reaped++
			ttlReaped.WithLabelValues(collName).Inc()
		}
	}
	if reaped > 0 {
		log.Printf("INFO: TTL sweep removed %d expired documents", reaped)
	}
	return reaped
}

// Stats returns engine-level statistics for diagnostics.
func (se *StorageEngine) Stats() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	se.mu.RLock()
	collections := make(map[string]int64, len(se.collections))
	for name, coll := range se.collections {
		collections[name] = coll.docCount.Load()
	}
	se.mu.RUnlock()

	return map[string]interface{}{
		"alloc_mb":       m.Alloc / 1024 / 1024,
		"num_goroutines": runtime.NumGoroutine(),
		"collections":    collections,
		"sweep_interval": se.sweepInterval.String(),
	}
}
