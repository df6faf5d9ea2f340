package handlers

import (
	"net/http"

	"tradebot/internal/repository"
	"tradebot/internal/types"
)

// DashboardHandler exposes the always-derived dashboard views.
type DashboardHandler struct {
	repo *repository.Repository
}

// NewDashboardHandler wires a DashboardHandler to the repository.
func NewDashboardHandler(repo *repository.Repository) *DashboardHandler {
	return &DashboardHandler{repo: repo}
}

// GetStats handles GET /api/v1/dashboard/stats.
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetDashboardStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get dashboard stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetEquityCurve handles GET /api/v1/dashboard/equity-curve.
func (h *DashboardHandler) GetEquityCurve(w http.ResponseWriter, r *http.Request) {
	curve, err := h.repo.EquityCurve()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get equity curve", err)
		return
	}
	if curve == nil {
		curve = []types.EquityPoint{}
	}
	writeJSON(w, http.StatusOK, curve)
}
