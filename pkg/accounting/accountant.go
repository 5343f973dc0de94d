package accounting

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/puzpuzpuz/xsync/v3"
)

// EntriesWritten counts index entries written (added or removed) by
// index maintenance, per collection and index. This is the observable
// form of write amplification: every extra index turns one document
// write into more index writes.
var EntriesWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "plandb",
	Subsystem: "index",
	Name:      "entries_written_total",
}, []string{"collection", "index"})

// Collectors returns the package's prometheus collectors for
// registration by the serving layer.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{EntriesWritten}
}

// Accountant tracks cumulative per-index maintenance cost. Purely
// additive counters, no failure modes.
type Accountant struct {
	counters *xsync.MapOf[string, *xsync.Counter]
}

// NewAccountant creates an empty accountant.
func NewAccountant() *Accountant {
	return &Accountant{counters: xsync.NewMapOf[string, *xsync.Counter]()}
}

// The separator cannot appear in collection or index names, which are
// derived from field names.
const keySep = "\x00"

// Record adds entriesWritten to the counter for (collection, index).
func (a *Accountant) Record(collection, index string, entriesWritten int) {
	if entriesWritten <= 0 {
		return
	}
	counter, _ := a.counters.LoadOrCompute(collection+keySep+index, func() *xsync.Counter {
		return xsync.NewCounter()
	})
	counter.Add(int64(entriesWritten))
	EntriesWritten.WithLabelValues(collection, index).Add(float64(entriesWritten))
}

// Report returns the cumulative entries written per index for one
// collection.
func (a *Accountant) Report(collection string) map[string]int64 {
	prefix := collection + keySep
	out := make(map[string]int64)
	a.counters.Range(func(key string, counter *xsync.Counter) bool {
		if strings.HasPrefix(key, prefix) {
			out[strings.TrimPrefix(key, prefix)] = counter.Value()
		}
		return true
	})
	return out
}

// Total returns the cumulative entries written across every index of the
// collection.
func (a *Accountant) Total(collection string) int64 {
	var total int64
	for _, n := range a.Report(collection) {
		total += n
	}
	return total
}
