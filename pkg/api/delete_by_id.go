package api

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// HandleDeleteById handles DELETE requests to remove a specific document by ID
func (h *Handler) HandleDeleteById(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	docID := vars["id"]

	log.Printf("INFO: handleDeleteById called for collection '%s', document '%s'", collName, docID)

	if err := h.store.Delete(collName, docID); err != nil {
		log.Printf("ERROR: Delete failed for document '%s' in collection '%s': %v", docID, collName, err)
		WriteDomainError(w, err)
		return
	}

	log.Printf("INFO: Deleted document '%s' from collection '%s'", docID, collName)
	w.WriteHeader(http.StatusNoContent)
}
