package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// HandleWriteCosts reports the cumulative index-maintenance cost per
// index for a collection: the concrete form of write amplification.
func (h *Handler) HandleWriteCosts(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	collName := vars["coll"]

	costs := h.store.WriteCosts(collName)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"collection":      collName,
		"entries_written": costs,
	})
}
