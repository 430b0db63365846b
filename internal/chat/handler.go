package chat

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/driveline-ai/lucid-booking-bot/pkg/logging"
)

// Handler exposes the conversation service over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates the HTTP handler for the chat endpoints.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger.Named("http")}
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type chatResponse struct {
	Response  string `json:"response"`
	Context   string `json:"context"`
	UserID    string `json:"user_id"`
	MessageID string `json:"message_id"`
}

// Chat handles POST /chat with a JSON body.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.UserID == "" {
		req.UserID = "web-user"
	}

	reply := h.service.ProcessMessage(r.Context(), req.UserID, req.Message)
	summary, _ := h.service.ContextSummary(r.Context(), req.UserID)

	writeJSON(w, http.StatusOK, chatResponse{
		Response:  reply,
		Context:   summary,
		UserID:    req.UserID,
		MessageID: uuid.NewString(),
	})
}

// Twilio handles POST /twilio webhooks with form-encoded Body and From
// fields, as sent by the WhatsApp integration.
func (h *Handler) Twilio(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	body := strings.TrimSpace(r.PostFormValue("Body"))
	from := r.PostFormValue("From")
	if body == "" || from == "" {
		writeError(w, http.StatusBadRequest, "Body and From are required")
		return
	}

	reply := h.service.ProcessMessage(r.Context(), from, body)
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply, "to": from})
}

// Reset handles POST /reset/{userID}.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userID is required")
		return
	}
	c := h.service.Reset(r.Context(), userID)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "reset",
		"user_id": c.UserID,
		"context": c.Summary(),
	})
}

// Context handles GET /context/{userID}, a debug view of the stored context.
func (h *Handler) Context(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userID is required")
		return
	}
	summary, c := h.service.ContextSummary(r.Context(), userID)
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": c.UserID,
		"summary": summary,
		"context": c,
	})
}

type cleanupRequest struct {
	Days int `json:"days"`
}

// Cleanup handles POST /cleanup, evicting contexts idle longer than the
// requested number of days (default 7).
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	req := cleanupRequest{Days: 7}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	if req.Days <= 0 {
		writeError(w, http.StatusBadRequest, "days must be positive")
		return
	}

	evicted := h.service.Cleanup(time.Duration(req.Days) * 24 * time.Hour)
	writeJSON(w, http.StatusOK, map[string]any{"evicted": evicted, "days": req.Days})
}

// Routes mounts the chat endpoints on a router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/chat", h.Chat)
	r.Post("/twilio", h.Twilio)
	r.Post("/reset/{userID}", h.Reset)
	r.Get("/context/{userID}", h.Context)
	r.Post("/cleanup", h.Cleanup)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
