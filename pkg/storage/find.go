package storage

import (
	"sort"

	"github.com/rcastelli/plandb/pkg/domain"
	"github.com/rcastelli/plandb/pkg/planner"
)

// Explain plans the request without executing it. Planning is read-only
// and free of side effects, so callers may abandon it at any point.
func (se *StorageEngine) Explain(collName string, req domain.QueryRequest) (*domain.Plan, error) {
	coll, err := se.getCollection(collName)
	if err != nil {
		return nil, err
	}
	plan := se.plan(coll, req)
	return &plan, nil
}

func (se *StorageEngine) plan(coll *collection, req domain.QueryRequest) domain.Plan {
	snap := planner.Snapshot{
		Collection: coll.name,
		Indexes:    se.indexes.ListForCollection(coll.name),
		Version:    se.indexes.Version(coll.name),
		DocCount:   int(coll.docCount.Load()),
	}
	return se.planner.Plan(snap, req)
}

// Find plans and executes a query, returning the matching documents and
// the plan that produced them.
func (se *StorageEngine) Find(collName string, req domain.QueryRequest) ([]domain.Document, *domain.Plan, error) {
	coll, err := se.getCollection(collName)
	if err != nil {
		return nil, nil, err
	}

	plan := se.plan(coll, req)

	var results []domain.Document
	switch {
	case plan.Covered:
		results = se.findCovered(coll, req, plan)
	case !plan.FullScan:
		results = se.findByIndex(coll, req, plan)
	default:
		results = se.findByScan(coll, req)
	}

	if len(req.Sort) > 0 {
		if plan.InMemorySort {
			sortDocs(results, req.Sort)
		} else if se.indexOrderReversed(coll.name, plan.Index, req.Sort) {
			reverseDocs(results)
		}
	}

	if len(req.Projection) > 0 {
		for i, doc := range results {
			results[i] = project(doc, req.Projection)
		}
	}

	if req.Limit > 0 && len(results) > req.Limit {
		results = results[:req.Limit]
	}
	return results, &plan, nil
}

// findCovered answers the query from index entries alone, without
// fetching any document.
func (se *StorageEngine) findCovered(coll *collection, req domain.QueryRequest, plan domain.Plan) []domain.Document {
	values, ids, ok := se.indexes.IndexedValues(coll.name, plan.Index, req.Filter)
	if !ok {
		return se.findByScan(coll, req)
	}
	results := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		entry := values[id]
		if entry == nil || !MatchesFilter(entry, req.Filter) {
			continue
		}
		results = append(results, entry.Clone())
	}
	return results
}

// findByIndex narrows candidates through the chosen index, then applies
// the full filter against each fetched document.
func (se *StorageEngine) findByIndex(coll *collection, req domain.QueryRequest, plan domain.Plan) []domain.Document {
	ids, ok := se.indexes.Candidates(coll.name, plan.Index, req.Filter)
	if !ok {
		return se.findByScan(coll, req)
	}
	var results []domain.Document
	for _, id := range ids {
		doc, exists := coll.docs.Load(id)
		if !exists {
			continue
		}
		if MatchesFilter(doc, req.Filter) {
			results = append(results, doc.Clone())
		}
	}
	return results
}

// findByScan walks every document. Always valid; the planner flags it so
// operators can see which queries run unindexed. Results are ordered by
// key so scans stay deterministic.
func (se *StorageEngine) findByScan(coll *collection, req domain.QueryRequest) []domain.Document {
	var results []domain.Document
	coll.docs.Range(func(id string, doc domain.Document) bool {
		if MatchesFilter(doc, req.Filter) {
			results = append(results, doc.Clone())
		}
		return true
	})
	sort.Slice(results, func(i, j int) bool {
		return results[i].ID() < results[j].ID()
	})
	return results
}

// indexOrderReversed reports whether the requested sort runs the chosen
// index backwards, in which case the index-ordered results are reversed
// instead of re-sorted.
func (se *StorageEngine) indexOrderReversed(collName, indexName string, sortSpec []domain.IndexField) bool {
	for _, info := range se.indexes.ListForCollection(collName) {
		if info.Name != indexName {
			continue
		}
		for _, f := range info.Fields {
			if f.Name == sortSpec[0].Name {
				return f.Desc != sortSpec[0].Desc
			}
		}
	}
	return false
}

func reverseDocs(docs []domain.Document) {
	for i, j := 0, len(docs)-1; i < j; i, j = i+1, j-1 {
		docs[i], docs[j] = docs[j], docs[i]
	}
}
