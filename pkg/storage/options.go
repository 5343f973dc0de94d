package storage

import "time"

type StorageOption func(*StorageEngine)

// WithTTLSweepInterval sets how often the TTL reaper runs. Expired
// documents are removed within at most one interval after expiry; an
// interval <= 0 disables the reaper.
func WithTTLSweepInterval(interval time.Duration) StorageOption {
	return func(engine *StorageEngine) {
		engine.sweepInterval = interval
	}
}

// WithPlanCacheSize bounds the planner's plan cache.
func WithPlanCacheSize(size int) StorageOption {
	return func(engine *StorageEngine) {
		engine.planCacheSize = size
	}
}

// WithDataFile sets the snapshot file used by SaveToFile/LoadFromFile
// when called with an empty filename.
func WithDataFile(path string) StorageOption {
	return func(engine *StorageEngine) {
		engine.dataFile = path
	}
}
