package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	apperror "mpp-chat-portal/internal/error"
	"mpp-chat-portal/internal/service"

	"go.uber.org/zap"
)

type tokenEvent struct {
	Token string `json:"token"`
}

// ------------------------------------------------------------------------------------------------------
// writeEvent writes one SSE data line. Payloads are JSON so fragments containing newlines
// keep the event framing intact.
func writeEvent(w http.ResponseWriter, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

// ------------------------------------------------------------------------------------------------------
func (h *Handler) handleSSEChat(w http.ResponseWriter, r *http.Request) {
	var req service.ChatRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	req.Stream = true

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	response, err := h.chatService.ProcessChatStream(r.Context(), &req, func(token string) error {
		return writeEvent(w, tokenEvent{Token: token})
	})

	if err != nil {
		h.logger.Error("Streaming failed", zap.Error(err))

		if writeErr := writeEvent(w, apperror.NewErrorResponse(err)); writeErr != nil {
			h.logger.Error("Failed to write error message", zap.Error(writeErr))
		}
		return
	}

	if err := writeEvent(w, response); err != nil {
		h.logger.Error("Failed to write final reply", zap.Error(err))
		return
	}

	// Send completion marker
	if _, err := w.Write([]byte("data: [DONE]\n\n")); err != nil {
		h.logger.Error("Failed to write completion marker", zap.Error(err))
		return
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
