package handlers

import (
	"log/slog"
	"net/http"

	"github.com/andresmejia3/facebridge/internal/bridge"
	"github.com/andresmejia3/facebridge/internal/store"
)

// PrefsHandler exposes the durable session flags.
type PrefsHandler struct {
	prefs store.Preferences
	log   *slog.Logger
}

func NewPrefsHandler(prefs store.Preferences, log *slog.Logger) *PrefsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PrefsHandler{prefs: prefs, log: log}
}

// PrefsResponse is the durable state the last session left behind.
type PrefsResponse struct {
	HasVectorImage string `json:"hasvectorimage"`
	HasImage       string `json:"hasimage"`
	LiveUserImg    string `json:"liveUserImg"`
}

// Get handles GET /api/v1/prefs.
func (h *PrefsHandler) Get(w http.ResponseWriter, r *http.Request) {
	all, err := h.prefs.All(r.Context())
	if err != nil {
		h.log.Error("failed to read preferences", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to read preferences")
		return
	}
	respondJSON(w, http.StatusOK, PrefsResponse{
		HasVectorImage: all[bridge.KeyHasVector],
		HasImage:       all[bridge.KeyHasImage],
		LiveUserImg:    all[bridge.KeyLiveImage],
	})
}
