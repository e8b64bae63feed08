package handlers

import (
	"errors"
	"net/http"

	apperror "mpp-chat-portal/internal/error"
	"mpp-chat-portal/internal/service"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type wsDone struct {
	Done     bool                  `json:"done"`
	Response *service.ChatResponse `json:"response"`
}

// handleWebSocketChat serves a conversation over one socket: every message read is answered
// with streamed tokens followed by the finalized reply.
func (h *Handler) handleWebSocketChat(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conversationID := r.URL.Query().Get("conversationId")

	for {
		var req service.ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				h.logger.Debug("WebSocket closed", zap.Error(err))
				return
			}

			h.logger.Error("Failed to read WebSocket message", zap.Error(err))
			errorResponse := apperror.NewErrorResponse(
				apperror.NewValidationError("Failed to read WebSocket message: invalid JSON", err),
			)
			_ = conn.WriteJSON(errorResponse)
			return
		}

		req.Stream = true
		if req.ConversationID == "" {
			req.ConversationID = conversationID
		}

		response, err := h.chatService.ProcessChatStream(r.Context(), &req, func(token string) error {
			message := map[string]string{"token": token}
			return conn.WriteJSON(message)
		})

		if err != nil {
			h.logger.Error("WebSocket streaming failed", zap.Error(err))
			errorResponse := apperror.NewErrorResponse(err)
			if writeErr := conn.WriteJSON(errorResponse); writeErr != nil {
				return
			}
			continue
		}
		conversationID = response.ConversationID

		err = conn.WriteJSON(wsDone{Done: true, Response: response})
		if err != nil {
			h.logger.Error("Failed to write done message", zap.Error(err))
			return
		}
	}
}
