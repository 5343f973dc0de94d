package api

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// HandleDropIndex removes an index from a collection
func (h *Handler) HandleDropIndex(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]
	indexName := vars["index"]

	if err := h.store.DropIndex(collName, indexName); err != nil {
		log.Printf("ERROR: DropIndex failed for index '%s' on collection '%s': %v", indexName, collName, err)
		WriteJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	log.Printf("INFO: Dropped index '%s' from collection '%s'", indexName, collName)
	w.WriteHeader(http.StatusNoContent)
}
