package handlers

import (
	"net/http"

	"mpp-chat-portal/internal/render"
	"mpp-chat-portal/internal/service"

	"github.com/gorilla/mux"
)

// ----------------------------------------------------------------------------------------------------------------
func (h *Handler) handleJSONChat(w http.ResponseWriter, r *http.Request) {
	var req service.ChatRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	req.Stream = false

	response, err := h.chatService.ProcessChat(r.Context(), &req)
	if err != nil {
		h.sendErrorResponse(w, err)
		return
	}

	h.sendJSON(w, http.StatusOK, response)
}

// ----------------------------------------------------------------------------------------------------------------
func (h *Handler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.chatService.ResetConversation(r.Context(), id); err != nil {
		h.sendErrorResponse(w, err)
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]string{"conversationId": id, "status": "reset"})
}

// ----------------------------------------------------------------------------------------------------------------
// TranscriptHandler returns the rendered turns of a conversation
func (h *Handler) TranscriptHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	turns, err := h.chatService.Transcript(r.Context(), id)
	if err != nil {
		h.sendErrorResponse(w, err)
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]any{
		"conversationId": id,
		"turns":          render.Turns(turns),
	})
}

// ----------------------------------------------------------------------------------------------------------------
func (h *Handler) SuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string][]string{
		"suggestions": h.chatService.Suggestions(r.URL.Query().Get("q")),
	})
}

// ----------------------------------------------------------------------------------------------------------------
func (h *Handler) QuickCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string][]string{
		"categories": h.chatService.QuickCategories(),
	})
}
