package handlers

import (
	"net/http"

	"tradebot/internal/repository"
)

// TradeHandler exposes the trade log.
type TradeHandler struct {
	repo *repository.Repository
}

// NewTradeHandler wires a TradeHandler to the repository.
func NewTradeHandler(repo *repository.Repository) *TradeHandler {
	return &TradeHandler{repo: repo}
}

// GetOpenTrades handles GET /api/v1/trades/open.
func (h *TradeHandler) GetOpenTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.repo.GetOpenTrades()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get open trades", err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

// GetAllTrades handles GET /api/v1/trades.
func (h *TradeHandler) GetAllTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.repo.GetAllTrades()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get trades", err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}
