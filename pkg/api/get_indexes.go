package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// HandleGetIndexes handles GET requests to list all indexes for a collection
func (h *Handler) HandleGetIndexes(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	indexes, err := h.store.ListIndexes(collName)
	if err != nil {
		log.Printf("ERROR: Failed to list indexes for collection '%s': %v", collName, err)
		WriteJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":     true,
		"collection":  collName,
		"indexes":     indexes,
		"index_count": len(indexes),
	})
}
