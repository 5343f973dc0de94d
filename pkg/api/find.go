package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rcastelli/plandb/pkg/domain"
)

// HandleFind handles POST requests executing a filter/sort/projection
// query against a collection. The response carries the documents plus
// the plan that produced them.
func (h *Handler) HandleFind(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	log.Printf("INFO: handleFind called for collection '%s'", collName)

	var req domain.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("ERROR: Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	docs, plan, err := h.store.Find(collName, req)
	if err != nil {
		log.Printf("ERROR: Find failed for collection '%s': %v", collName, err)
		WriteDomainError(w, err)
		return
	}

	log.Printf("INFO: Found %d documents in collection '%s' (index=%q covered=%v)",
		len(docs), collName, plan.Index, plan.Covered)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"documents": docs,
		"count":     len(docs),
		"plan":      plan,
	})
}
