package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ClientLogPayload is an event reported by the chat client.
type ClientLogPayload struct {
	Level          string `json:"level"` // "debug", "info", "warn" or "error"
	Message        string `json:"message"`
	ConversationID string `json:"conversationId,omitempty"`
	Context        any    `json:"context,omitempty"`
}

// LogClientEvent records a client event through slog and answers 204.
func LogClientEvent(w http.ResponseWriter, r *http.Request) {
	var payload ClientLogPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	attrs := []any{
		slog.String("message", payload.Message),
		slog.String("conversation_id", payload.ConversationID),
		slog.Any("context", payload.Context),
	}
	switch payload.Level {
	case "debug":
		slog.Debug("CLIENT_LOG", attrs...)
	case "warn":
		slog.Warn("CLIENT_LOG", attrs...)
	case "error":
		slog.Error("CLIENT_LOG", attrs...)
	default:
		slog.Info("CLIENT_LOG", attrs...)
	}

	w.WriteHeader(http.StatusNoContent)
}
