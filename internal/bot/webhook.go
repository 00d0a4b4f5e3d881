package bot

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sehatlabs/sehat/internal/session"
)

// maxWebhookBodySize caps inbound webhook payloads (64KB).
const maxWebhookBodySize = 64 << 10

// InboundEvent is the payload the messaging provider posts to the webhook.
type InboundEvent struct {
	From        string `json:"from"`
	Body        string `json:"body"`
	DisplayName string `json:"display_name,omitempty"`
	MediaURL    string `json:"media_url,omitempty"`
}

// RegisterRoutes mounts the webhook endpoint.
func (c *Coordinator) RegisterRoutes(r chi.Router) {
	r.Post("/webhook/whatsapp", c.HandleInbound)
}

// HandleInbound receives one provider event. The HTTP response is only the
// transport acknowledgement; the reply text travels over the outbound send
// API. The event is acknowledged with 200 even when collaborators fail —
// only a malformed payload or a session-integrity violation changes that.
func (c *Coordinator) HandleInbound(w http.ResponseWriter, r *http.Request) {
	var ev InboundEvent
	body := http.MaxBytesReader(w, r.Body, maxWebhookBodySize)
	if err := json.NewDecoder(body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	if err := c.Process(r.Context(), ev); err != nil {
		if errors.Is(err, session.ErrInvalidSession) {
			slog.Error("Session integrity violation", "from", ev.From, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		slog.Error("Event processing failed", "from", ev.From, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unprocessable event"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// NormalizePhone canonicalizes a transport sender id: the provider's
// "whatsapp:" prefix is stripped and everything but digits and a leading
// plus sign is dropped.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.IndexByte(raw, ':'); idx >= 0 {
		raw = raw[idx+1:]
	}

	var b strings.Builder
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
