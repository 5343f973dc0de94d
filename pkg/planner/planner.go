package planner

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rcastelli/plandb/pkg/domain"
	"github.com/rcastelli/plandb/pkg/indexing"
)

// Snapshot is the read-only view of one collection's catalog the planner
// works from. Planning is pure: it never mutates catalog or store state,
// so it can be called freely by tests and operators.
type Snapshot struct {
	Collection string
	Indexes    []domain.IndexInfo // creation order
	Version    uint64
	DocCount   int
}

// Planner selects the best index for a query request. Plans are cached
// per request shape and invalidated by catalog version bumps.
type Planner struct {
	cache *lru.Cache[string, domain.Plan]
}

// DefaultCacheSize bounds the number of cached plans.
const DefaultCacheSize = 512

// New creates a planner with a plan cache of the given size. Size <= 0
// selects DefaultCacheSize.
func New(cacheSize int) *Planner {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, _ := lru.New[string, domain.Plan](cacheSize)
	return &Planner{cache: cache}
}

// Plan chooses the best index for the request, or a full collection
// scan. Planning never fails: absence of a usable index degrades to a
// scan, flagged for observability.
func (p *Planner) Plan(snap Snapshot, req domain.QueryRequest) domain.Plan {
	key := cacheKey(snap.Collection, snap.Version, req)
	if plan, ok := p.cache.Get(key); ok {
		// Cost depends on the live document count, not the catalog shape.
		plan.EstimatedCost = estimateCost(snap.DocCount, plan)
		return plan
	}

	plan := choose(snap, req)
	p.cache.Add(key, plan)
	return plan
}

// score is the match quality of one index for one request.
type score struct {
	info      domain.IndexInfo
	total     int
	eqPrefix  int
	withRange bool
	sortMatch bool
}

func choose(snap Snapshot, req domain.QueryRequest) domain.Plan {
	best := score{}
	found := false

	for _, info := range snap.Indexes {
		s := scoreIndex(info, req)
		if s.total <= 0 {
			continue
		}
		if !found || better(s, best) {
			best = s
			found = true
		}
	}

	if !found {
		plan := domain.Plan{
			FullScan:     true,
			InMemorySort: len(req.Sort) > 0,
		}
		plan.EstimatedCost = estimateCost(snap.DocCount, plan)
		return plan
	}

	matched := make([]string, 0, best.eqPrefix+1)
	for i := 0; i < best.eqPrefix; i++ {
		matched = append(matched, best.info.Fields[i].Name)
	}
	if best.withRange && best.eqPrefix < len(best.info.Fields) {
		matched = append(matched, best.info.Fields[best.eqPrefix].Name)
	}

	plan := domain.Plan{
		Index:         best.info.Name,
		Covered:       isCovered(best.info, req),
		InMemorySort:  len(req.Sort) > 0 && !best.sortMatch,
		MatchedFields: matched,
	}
	plan.EstimatedCost = estimateCost(snap.DocCount, plan)
	return plan
}

// scoreIndex computes the match score: the count of leading equality-
// constrained fields, plus one if the next field serves a range
// predicate, plus one if the sort spec continues the matched prefix in
// index order (no separate sort step needed).
func scoreIndex(info domain.IndexInfo, req domain.QueryRequest) score {
	eq, rng := indexing.MatchPrefix(info.Fields, req.Filter)
	s := score{info: info, eqPrefix: eq, withRange: rng, total: eq}
	if rng {
		s.total++
	}
	if len(req.Sort) > 0 && sortContinues(info.Fields, eq, req.Sort) {
		s.sortMatch = true
		s.total++
	}
	return s
}

// sortContinues reports whether the sort fields are a suffix-compatible
// continuation of the matched prefix: they must line up with the index
// fields starting right after the equality prefix, with all directions
// either matching or all inverted (an index can be walked backwards).
func sortContinues(fields []domain.IndexField, eqPrefix int, sortSpec []domain.IndexField) bool {
	if eqPrefix+len(sortSpec) > len(fields) {
		return false
	}
	forward, backward := true, true
	for i, s := range sortSpec {
		f := fields[eqPrefix+i]
		if f.Name != s.Name {
			return false
		}
		if f.Desc != s.Desc {
			forward = false
		} else {
			backward = false
		}
	}
	return forward || backward
}

// better implements the tie-break: higher score wins, then fewer total
// fields (cheaper to maintain and scan), then earlier creation order.
func better(a, b score) bool {
	if a.total != b.total {
		return a.total > b.total
	}
	if len(a.info.Fields) != len(b.info.Fields) {
		return len(a.info.Fields) < len(b.info.Fields)
	}
	return a.info.Seq < b.info.Seq
}

// isCovered reports whether the query is fully answerable from index
// entries. Requires a nonempty projection inside the index's field set
// and a filter that references no field outside the index: a filter on
// an unindexed field forces a document fetch, breaking coverage.
// Multi-key indexes never cover, since an entry carries one array
// element, not the array.
func isCovered(info domain.IndexInfo, req domain.QueryRequest) bool {
	if len(req.Projection) == 0 || info.Kind == domain.IndexMultiKey {
		return false
	}
	indexed := make(map[string]struct{}, len(info.Fields))
	for _, f := range info.Fields {
		indexed[f.Name] = struct{}{}
	}
	for _, field := range req.Projection {
		if _, ok := indexed[field]; !ok {
			return false
		}
	}
	for field := range req.Filter {
		if _, ok := indexed[field]; !ok {
			return false
		}
	}
	return true
}

// estimateCost is a coarse, monotonic heuristic: a full scan touches
// every document; an index narrows the candidate set; an in-memory sort
// touches the result set again.
func estimateCost(docCount int, plan domain.Plan) int {
	cost := docCount
	if !plan.FullScan {
		divisor := 1 << uint(len(plan.MatchedFields))
		cost = docCount / divisor
		if cost < 1 {
			cost = 1
		}
	}
	if plan.InMemorySort {
		cost += docCount / 2
	}
	return cost
}

// cacheKey canonicalizes the request shape, scoped to one collection's
// catalog. Two requests against the same collection constraining the
// same fields the same way share a plan, whatever the filter values;
// requests against different collections never share, since their
// catalogs differ even at equal versions.
func cacheKey(collection string, version uint64, req domain.QueryRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|v%d|f:", collection, version)

	fields := make([]string, 0, len(req.Filter))
	for name, pred := range req.Filter {
		kind := "eq"
		if pred.IsRange() {
			kind = "rng"
		} else if !pred.IsEquality() {
			kind = "any"
		}
		fields = append(fields, name+"="+kind)
	}
	sort.Strings(fields)
	b.WriteString(strings.Join(fields, ","))

	b.WriteString("|s:")
	for _, s := range req.Sort {
		dir := "+"
		if s.Desc {
			dir = "-"
		}
		b.WriteString(dir + s.Name + ",")
	}

	b.WriteString("|p:")
	proj := append([]string(nil), req.Projection...)
	sort.Strings(proj)
	b.WriteString(strings.Join(proj, ","))
	return b.String()
}
