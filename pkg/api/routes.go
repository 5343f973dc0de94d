package api

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API routes with the given router
func (h *Handler) RegisterRoutes(router *mux.Router) {
	// Document operations
	router.HandleFunc("/collections/{coll}", h.HandleInsert).Methods("POST")
	router.HandleFunc("/collections/{coll}/documents/{id}", h.HandleGetById).Methods("GET")
	router.HandleFunc("/collections/{coll}/documents/{id}", h.HandleUpdateById).Methods("PATCH")
	router.HandleFunc("/collections/{coll}/documents/{id}", h.HandleDeleteById).Methods("DELETE")

	// Query operations
	router.HandleFunc("/collections/{coll}/find", h.HandleFind).Methods("POST")
	router.HandleFunc("/collections/{coll}/explain", h.HandleExplain).Methods("POST")

	// Index operations
	router.HandleFunc("/collections/{coll}/indexes", h.HandleCreateIndex).Methods("POST")
	router.HandleFunc("/collections/{coll}/indexes", h.HandleGetIndexes).Methods("GET")
	router.HandleFunc("/collections/{coll}/indexes/{index}", h.HandleDropIndex).Methods("DELETE")

	// Diagnostics
	router.HandleFunc("/collections/{coll}/write-costs", h.HandleWriteCosts).Methods("GET")
	router.HandleFunc("/stats", h.HandleStats).Methods("GET")
	router.HandleFunc("/health", h.HandleHealth).Methods("GET")
}
