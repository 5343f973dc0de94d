package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rcastelli/plandb/pkg/domain"
)

// HandleUpdateById handles PATCH requests to apply a field-level delta
// to a specific document
func (h *Handler) HandleUpdateById(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	docID := vars["id"]

	log.Printf("INFO: handleUpdateById called for collection '%s', document '%s'", collName, docID)

	var delta domain.Document
	if err := json.NewDecoder(r.Body).Decode(&delta); err != nil {
		log.Printf("ERROR: Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.store.Update(collName, docID, delta); err != nil {
		log.Printf("ERROR: Update failed for document '%s' in collection '%s': %v", docID, collName, err)
		WriteDomainError(w, err)
		return
	}

	log.Printf("INFO: Updated document '%s' in collection '%s'", docID, collName)
	w.WriteHeader(http.StatusOK)
}
