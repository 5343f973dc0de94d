package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rcastelli/plandb/pkg/domain"
)

// CreateIndexRequest is the JSON body for index creation.
type CreateIndexRequest struct {
	Fields     []domain.IndexField `json:"fields"`
	TTLSeconds int64               `json:"ttl_seconds,omitempty"`
}

// HandleCreateIndex creates an index on a collection
func (h *Handler) HandleCreateIndex(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	var req CreateIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("ERROR: Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Fields) == 0 {
		WriteJSONError(w, http.StatusBadRequest, "index shape must name at least one field")
		return
	}

	def := domain.IndexDef{
		Fields:      req.Fields,
		ExpireAfter: time.Duration(req.TTLSeconds) * time.Second,
	}

	name, err := h.store.CreateIndex(collName, def)
	if err != nil {
		log.Printf("ERROR: CreateIndex failed for collection '%s': %v", collName, err)
		WriteDomainError(w, err)
		return
	}

	log.Printf("INFO: Created index '%s' on collection '%s'", name, collName)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":    true,
		"collection": collName,
		"index":      name,
	})
}
