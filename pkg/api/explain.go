package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rcastelli/plandb/pkg/domain"
)

// HandleExplain handles POST requests planning a query without running
// it. Planning is read-only, so this endpoint is safe to call freely.
func (h *Handler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	var req domain.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("ERROR: Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	plan, err := h.store.Explain(collName, req)
	if err != nil {
		log.Printf("ERROR: Explain failed for collection '%s': %v", collName, err)
		WriteDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(plan)
}
