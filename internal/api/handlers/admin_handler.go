package handlers

import (
	"net/http"
	"strconv"

	"mpp-chat-portal/internal/auth"
	apperror "mpp-chat-portal/internal/error"
	"mpp-chat-portal/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type agencyRequest struct {
	Name string `json:"name"`
	Logo string `json:"logo"`
}

// ------------------------------------------------------------------------------------------------------
// admin reports whether the admin backend is available and answers 503 when it is not.
func (h *Handler) admin(w http.ResponseWriter) bool {
	if h.adminService == nil {
		h.sendErrorResponse(w, apperror.NewUnavailableError("Admin backend requires a database", apperror.ErrDatabaseUnavailable))
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.sendErrorResponse(w, apperror.NewValidationError("Invalid id", err))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*auth.Claims, string, bool) {
	claims, token, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		h.sendErrorResponse(w, apperror.NewUnauthorizedError("Not signed in", apperror.ErrSessionExpired))
		return nil, "", false
	}
	return claims, token, true
}

// ------------------------------------------------------------------------------------------------------
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w) {
		return
	}
	var req credentialsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.adminService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.sendErrorResponse(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, resp)
}

func (h *Handler) SessionHandler(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w) {
		return
	}
	claims, _, ok := h.session(w, r)
	if !ok {
		return
	}
	h.sendJSON(w, http.StatusOK, h.adminService.Session(claims))
}

func (h *Handler) RefreshSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w) {
		return
	}
	_, token, ok := h.session(w, r)
	if !ok {
		return
	}

	session, err := h.adminService.RefreshSession(token)
	if err != nil {
		h.sendErrorResponse(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, session)
}

// ------------------------------------------------------------------------------------------------------
func (h *Handler) ListAgenciesHandler(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w) {
		return
	}
	agencies, err := h.adminService.ListAgencies(r.Context())
	if err != nil {
		h.sendErrorResponse(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, agencies)
}

func (h *Handler) CreateAgencyHandler(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w) {
		return
	}
	var req agencyRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	agency, err := h.adminService.CreateAgency(r.Context(), req.Name, req.Logo)
	if err != nil {
		h.sendErrorResponse(w, err)
		return
	}
	h.sendJSON(w, http.StatusCreated, agency)
}

func (h *Handler) UpdateAgencyHandler(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req agencyRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	agency, err := h.adminService.UpdateAgency(r.Context(), id, req.Name, req.Logo)
	if err != nil {
		h.sendErrorResponse(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, agency)
}

func (h *Handler) DeleteAgencyHandler(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.adminService.DeleteAgency(r.Context(), id); err != nil {
		h.sendErrorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ------------------------------------------------------------------------------------------------------
func (h *Handler) CreateServiceHandler(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w) {
		return
	}
	agencyID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var record models.ServiceRecord
	if !h.decodeJSON(w, r, &record) {
		return
	}

	svc, err := h.adminService.CreateService(r.Context(), agencyID, record)
	if err != nil {
		h.sendErrorResponse(w, err)
		return
	}
	h.sendJSON(w, http.StatusCreated, svc)
}

func (h *Handler) UpdateServiceHandler(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var record models.ServiceRecord
	if !h.decodeJSON(w, r, &record) {
		return
	}

	svc, err := h.adminService.UpdateService(r.Context(), id, record)
	if err != nil {
		h.sendErrorResponse(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, svc)
}

func (h *Handler) DeleteServiceHandler(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.adminService.DeleteService(r.Context(), id); err != nil {
		h.sendErrorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ------------------------------------------------------------------------------------------------------
func (h *Handler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w) {
		return
	}
	profile, err := h.adminService.Profile(r.Context())
	if err != nil {
		h.sendErrorResponse(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, profile)
}

func (h *Handler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w) {
		return
	}
	var profile models.Profile
	if !h.decodeJSON(w, r, &profile) {
		return
	}

	if err := h.adminService.UpdateProfile(r.Context(), &profile); err != nil {
		h.sendErrorResponse(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, profile)
}

// ------------------------------------------------------------------------------------------------------
func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w) {
		return
	}
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		h.sendErrorResponse(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, users)
}

func (h *Handler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w) {
		return
	}
	var req credentialsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, err := h.adminService.CreateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		h.sendErrorResponse(w, err)
		return
	}
	h.sendJSON(w, http.StatusCreated, user)
}

func (h *Handler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req credentialsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, err := h.adminService.UpdateUser(r.Context(), id, req.Username, req.Password)
	if err != nil {
		h.sendErrorResponse(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, user)
}

func (h *Handler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	claims, _, ok := h.session(w, r)
	if !ok {
		return
	}
	actorID, err := uuid.Parse(claims.UserID)
	if err != nil {
		h.sendErrorResponse(w, apperror.NewUnauthorizedError("Session does not name a user", err))
		return
	}

	if err := h.adminService.DeleteUser(r.Context(), actorID, id); err != nil {
		h.sendErrorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ------------------------------------------------------------------------------------------------------
// ChatLogsHandler lists chat logs of the last ?days= days
func (h *Handler) ChatLogsHandler(w http.ResponseWriter, r *http.Request) {
	if !h.admin(w) {
		return
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.sendErrorResponse(w, apperror.NewValidationError("days must be a number", err))
			return
		}
		days = n
	}

	logs, err := h.adminService.ChatLogs(r.Context(), days)
	if err != nil {
		h.sendErrorResponse(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, logs)
}
