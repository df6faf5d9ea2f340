package handlers

import (
	"net/http"

	"tradebot/internal/protection"
)

// ProtectionHandler exposes read-only introspection of the configured
// protection pipeline. Rules are wired at startup from config, not through
// the API: a Rule is a Go interface, not a JSON-constructible value.
type ProtectionHandler struct {
	manager *protection.Manager
}

// NewProtectionHandler wires a ProtectionHandler to the pipeline.
func NewProtectionHandler(manager *protection.Manager) *ProtectionHandler {
	return &ProtectionHandler{manager: manager}
}

// ListRules handles GET /api/v1/protections.
func (h *ProtectionHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"rules": h.manager.List()})
}
