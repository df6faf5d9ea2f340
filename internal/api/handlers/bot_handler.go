// Package handlers implements the thin JSON handlers behind the command
// surface: argument parsing plus one call into the coordinator, repository,
// or protection manager, per route. No business logic lives here.
package handlers

import (
	"encoding/json"
	"net/http"

	"tradebot/internal/bot"
)

// BotHandler exposes the coordinator's lifecycle and status.
type BotHandler struct {
	coordinator *bot.Coordinator
}

// NewBotHandler wires a BotHandler to the running coordinator.
func NewBotHandler(coordinator *bot.Coordinator) *BotHandler {
	return &BotHandler{coordinator: coordinator}
}

// GetStatus handles GET /api/v1/bot/status.
func (h *BotHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.coordinator.GetStatus())
}

// Start handles POST /api/v1/bot/start.
func (h *BotHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.Start(r.Context()); err != nil {
		writeError(w, http.StatusConflict, "failed to start bot", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// Stop handles POST /api/v1/bot/stop.
func (h *BotHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.Stop(); err != nil {
		writeError(w, http.StatusConflict, "failed to stop bot", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// Pause handles POST /api/v1/bot/pause.
func (h *BotHandler) Pause(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.Pause(); err != nil {
		writeError(w, http.StatusConflict, "failed to pause bot", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

// Resume handles POST /api/v1/bot/resume.
func (h *BotHandler) Resume(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.Resume(); err != nil {
		writeError(w, http.StatusConflict, "failed to resume bot", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "running"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message, "details": err.Error()})
}
