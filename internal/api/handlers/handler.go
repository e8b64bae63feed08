package handlers

import (
	"encoding/json"
	"net/http"

	apperror "mpp-chat-portal/internal/error"
	"mpp-chat-portal/internal/service"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// RequestObserver counts chat requests by transport
type RequestObserver interface {
	ObserveChatRequest(streamType string)
}

type Handler struct {
	chatService  service.ChatService
	adminService service.AdminService // nil when no database is configured
	observer     RequestObserver
	logger       *zap.Logger
	upgrader     websocket.Upgrader
}

// ------------------------------------------------------------------------------------------------------
func NewHandler(chatService service.ChatService, adminService service.AdminService, observer RequestObserver, logger *zap.Logger) *Handler {
	return &Handler{
		chatService:  chatService,
		adminService: adminService,
		observer:     observer,
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ------------------------------------------------------------------------------------------------------
func (h *Handler) ChatHandler(w http.ResponseWriter, r *http.Request) {

	if websocket.IsWebSocketUpgrade(r) {
		h.observe("websocket")
		h.handleWebSocketChat(w, r)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	accept := r.Header.Get("Accept")

	if accept == "text/event-stream" || r.URL.Query().Get("stream") == "true" {
		h.observe("sse")
		h.handleSSEChat(w, r)
		return
	}

	h.observe("json")
	h.handleJSONChat(w, r)
}

func (h *Handler) observe(streamType string) {
	if h.observer != nil {
		h.observer.ObserveChatRequest(streamType)
	}
}

// ------------------------------------------------------------------------------------------------------
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// ------------------------------------------------------------------------------------------------------
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.Warn("Failed to decode request", zap.Error(err))
		h.sendErrorResponse(w, apperror.NewValidationError("Invalid JSON in request body", err))
		return false
	}
	return true
}

// ------------------------------------------------------------------------------------------------------
func (h *Handler) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// ------------------------------------------------------------------------------------------------------
func (h *Handler) sendErrorResponse(w http.ResponseWriter, err error) {
	statusCode := apperror.GetHTTPStatusCode(err)
	errorResponse := apperror.NewErrorResponse(err)

	if statusCode >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("error_type", string(apperror.TypeOf(err))),
			zap.Error(err),
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if encodeErr := json.NewEncoder(w).Encode(errorResponse); encodeErr != nil {
		h.logger.Error("Failed to encode error response",
			zap.Error(encodeErr),
			zap.Error(err),
		)
	}
}
