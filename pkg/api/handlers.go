package api

import (
	"github.com/rcastelli/plandb/pkg/domain"
)

// Handler provides HTTP handlers for the database API
type Handler struct {
	store domain.DocumentStore
}

// NewHandler creates a new API handler with dependency injection
func NewHandler(store domain.DocumentStore) *Handler {
	return &Handler{store: store}
}
