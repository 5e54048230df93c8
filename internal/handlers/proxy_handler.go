// File: internal/handlers/proxy_handler.go
package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	"github.com/iakadir/go-iakadir/internal/middleware"
	"github.com/iakadir/go-iakadir/internal/services/ai"
)

const (
	TaskChat  = "chat"
	TaskAudio = "audio"
	TaskImage = "image"

	// Base64 of the largest accepted upstream audio upload, with headroom.
	maxProxyBodyBytes = 40 << 20
)

// imageDisabledBody is returned for every image task until generation is paid for.
var imageDisabledBody = []byte(`{"error":{"code":"insufficient_quota","message":"insufficient_quota"}}`)

// Logger is the subset of services.Logger used by handlers.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// ProxyRequest is the task-tagged body accepted on POST /.
type ProxyRequest struct {
	Task         string            `json:"task"`
	Model        string            `json:"model"`
	Instructions *string           `json:"instructions"`
	Input        []ai.InputMessage `json:"input"`
	Prompt       *string           `json:"prompt"`
	Filename     string            `json:"filename"`
	AudioBase64  string            `json:"audioBase64"`
}

// ProxyResponse is the normalized success body.
type ProxyResponse struct {
	Text string `json:"text"`
}

type ProxyHandler struct {
	provider ai.Provider
	logger   Logger
}

func NewProxyHandler(provider ai.Provider, logger Logger) *ProxyHandler {
	return &ProxyHandler{provider: provider, logger: logger}
}

// Handle dispatches one task to the upstream API.
func (h *ProxyHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if !h.provider.Configured() {
		h.logger.Error("upstream credential is not configured")
		writeError(w, "Missing OPENAI_API_KEY", http.StatusInternalServerError)
		return
	}

	var req ProxyRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxProxyBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Task == "" {
		req.Task = TaskChat
	}

	subject, _ := middleware.SubjectFromContext(r.Context())
	h.logger.Info("proxy request", "task", req.Task, "model", req.Model,
		"subject", subject, "anonymous", middleware.IsAnonymous(r.Context()))

	switch req.Task {
	case TaskChat:
		h.handleChat(w, r, req)
	case TaskAudio:
		h.handleAudio(w, r, req)
	case TaskImage:
		writeRaw(w, http.StatusPaymentRequired, imageDisabledBody)
	default:
		writeError(w, fmt.Sprintf("unsupported task: %s", req.Task), http.StatusBadRequest)
	}
}

func (h *ProxyHandler) handleChat(w http.ResponseWriter, r *http.Request, req ProxyRequest) {
	for i, m := range req.Input {
		if m.Role != openai.ChatMessageRoleUser && m.Role != openai.ChatMessageRoleAssistant {
			writeError(w, fmt.Sprintf("input[%d].role must be user or assistant", i), http.StatusBadRequest)
			return
		}
	}

	text, err := h.provider.CreateResponse(r.Context(), ai.ResponseRequest{
		Model:        req.Model,
		Instructions: req.Instructions,
		Input:        req.Input,
	})
	if err != nil {
		h.writeUpstreamFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProxyResponse{Text: text})
}

func (h *ProxyHandler) handleAudio(w http.ResponseWriter, r *http.Request, req ProxyRequest) {
	if req.AudioBase64 == "" {
		writeError(w, "audioBase64 is required", http.StatusBadRequest)
		return
	}
	audio, err := decodeAudio(req.AudioBase64)
	if err != nil {
		writeError(w, "audioBase64 is not valid base64", http.StatusBadRequest)
		return
	}

	var prompt string
	if req.Prompt != nil {
		prompt = *req.Prompt
	}
	text, err := h.provider.Transcribe(r.Context(), ai.TranscriptionRequest{
		Model:    req.Model,
		Prompt:   prompt,
		Filename: req.Filename,
		Audio:    audio,
	})
	if err != nil {
		h.writeUpstreamFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProxyResponse{Text: text})
}

// writeUpstreamFailure hands JSON upstream error answers back unchanged and
// maps everything else to a JSON error.
func (h *ProxyHandler) writeUpstreamFailure(w http.ResponseWriter, err error) {
	var upstreamErr *ai.UpstreamError
	if errors.As(err, &upstreamErr) {
		if gjson.ValidBytes(upstreamErr.Body) {
			writeRaw(w, upstreamErr.StatusCode, upstreamErr.Body)
			return
		}
		h.logger.Warn("upstream returned a non-JSON error", "status", upstreamErr.StatusCode, "content_type", upstreamErr.ContentType)
		writeError(w, fmt.Sprintf("upstream returned status %d", upstreamErr.StatusCode), upstreamErr.StatusCode)
		return
	}

	var aiErr *ai.AIError
	if errors.As(err, &aiErr) {
		switch aiErr.Type {
		case ai.ErrTypeConfig:
			writeError(w, aiErr.Message, http.StatusInternalServerError)
		case ai.ErrTypeValidation:
			writeError(w, aiErr.Message, http.StatusBadRequest)
		case ai.ErrTypeNetwork:
			h.logger.Warn("upstream unreachable", "operation", aiErr.Operation, "error", err)
			writeError(w, "upstream request failed", http.StatusBadGateway)
		default:
			h.logger.Error("upstream call failed", "operation", aiErr.Operation, "error", err)
			writeError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.logger.Error("proxy request failed", "error", err)
	writeError(w, err.Error(), http.StatusInternalServerError)
}

// decodeAudio accepts padded and unpadded standard base64.
func decodeAudio(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if data, err := base64.StdEncoding.DecodeString(encoded); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
}
