package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/andresmejia3/facebridge/internal/bridge"
	"github.com/andresmejia3/facebridge/internal/surface"
	"github.com/andresmejia3/facebridge/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// maxReferenceBody caps a session request. Raw reference images arrive inline as base64.
const maxReferenceBody = 32 << 20

// SessionsHandler serves the capture session API and the content page socket.
type SessionsHandler struct {
	registry *Registry
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewSessionsHandler creates a new sessions handler. checkOrigin guards the
// websocket upgrade; nil accepts same-origin requests only.
func NewSessionsHandler(registry *Registry, checkOrigin func(*http.Request) bool, log *slog.Logger) *SessionsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SessionsHandler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     checkOrigin,
		},
		log: log,
	}
}

// CreateSessionRequest carries the reference identity. Either field may be empty.
type CreateSessionRequest struct {
	ReferenceImage  string `json:"reference_image"`
	ReferenceVector string `json:"reference_vector"`
}

// SessionResponse describes a session and, once it has ended, its result.
type SessionResponse struct {
	ID              string        `json:"id"`
	State           string        `json:"state"`
	Identity        string        `json:"identity"`
	SurfaceAttached bool          `json:"surface_attached"`
	CreatedAt       time.Time     `json:"created_at"`
	Result          *types.Result `json:"result,omitempty"`
}

func toSessionResponse(h *HostedSession) SessionResponse {
	state := h.Session.State()
	resp := SessionResponse{
		ID:              h.Session.ID.String(),
		State:           state.String(),
		Identity:        h.Session.Identity().Kind.String(),
		SurfaceAttached: h.Attached(),
		CreatedAt:       h.CreatedAt,
	}
	if state == bridge.StateEnded {
		res := h.Session.Result()
		resp.Result = &res
	}
	return resp
}

// Create handles POST /api/v1/sessions.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxReferenceBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	hs, err := h.registry.Create(req.ReferenceImage, req.ReferenceVector)
	if errors.Is(err, ErrSessionActive) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.log.Error("failed to create session", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	respondJSON(w, http.StatusCreated, toSessionResponse(hs))
}

// Get handles GET /api/v1/sessions/{id}.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	hs, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(hs))
}

// Delete handles DELETE /api/v1/sessions/{id}. It ends the session from any state.
func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	hs, ok := h.lookup(w, r)
	if !ok {
		return
	}
	hs.Session.Teardown(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Surface handles GET /api/v1/sessions/{id}/surface. The content page connects
// here; the connection is held until the session ends or the page goes away.
func (h *SessionsHandler) Surface(w http.ResponseWriter, r *http.Request) {
	hs, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if hs.Session.State() == bridge.StateEnded {
		respondError(w, http.StatusGone, "session has ended")
		return
	}
	if hs.Attached() {
		respondError(w, http.StatusConflict, ErrSurfaceAttached.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log.Warn("content surface upgrade failed", "error", err)
		return
	}

	log := h.log.With("session", hs.Session.ID.String())
	client := surface.NewClient(surface.NewWebSocketTransport(conn), log)
	if err := hs.surface.attach(client); err != nil {
		log.Warn("rejecting content surface", "error", err)
		client.Close()
		return
	}
	log.Info("content surface attached", "remote", sanitizeForLog(r.RemoteAddr))

	if err := client.Run(r.Context(), hs.Session.Navigating); err != nil {
		log.Info("content surface disconnected", "error", err)
	}

	// Navigating away from the page ends the session like closing it would.
	hs.Session.Teardown(r.Context())
}

func (h *SessionsHandler) lookup(w http.ResponseWriter, r *http.Request) (*HostedSession, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid session id")
		return nil, false
	}
	hs, ok := h.registry.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return hs, true
}
