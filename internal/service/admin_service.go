package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"mpp-chat-portal/internal/auth"
	apperror "mpp-chat-portal/internal/error"
	"mpp-chat-portal/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultChatLogDays = 30
	maxChatLogDays     = 365
)

// LoginResponse is returned after a successful sign-in
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserView  `json:"user"`
}

// SessionInfo describes the caller's current admin session
type SessionInfo struct {
	UserID           string    `json:"userId"`
	Username         string    `json:"username"`
	ExpiresAt        time.Time `json:"expiresAt"`
	RemainingSeconds int64     `json:"remainingSeconds"`
}

// UserView is a user as shown to administrators. The password is always masked.
type UserView struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newUserView(u *models.User) UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Password:  models.MaskedPassword,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// adminService handles catalog, profile, user and log management
type adminService struct {
	agencies AgencyStore
	services ServiceStore
	profile  ProfileStore
	users    UserStore
	chatLogs ChatLogStore
	tokens   *auth.TokenIssuer
	logger   *zap.Logger
	now      func() time.Time
}

// ------------------------------------------------------------------------------------------------------
// NewAdminService creates a new admin service with injected dependencies
func NewAdminService(
	agencies AgencyStore,
	services ServiceStore,
	profile ProfileStore,
	users UserStore,
	chatLogs ChatLogStore,
	tokens *auth.TokenIssuer,
	logger *zap.Logger,
) AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &adminService{
		agencies: agencies,
		services: services,
		profile:  profile,
		users:    users,
		chatLogs: chatLogs,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

// ------------------------------------------------------------------------------------------------------
// storeError converts repository errors into AppErrors
func storeError(what string, err error) error {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return apperror.NewNotFoundError(what+" not found", err)
	case errors.Is(err, apperror.ErrUsernameTaken):
		return apperror.NewConflictError("username already exists", err)
	default:
		return apperror.NewInternalError("failed to access "+what, err)
	}
}

// ------------------------------------------------------------------------------------------------------
func (s *adminService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NewUnauthorizedError("invalid username or password", apperror.ErrInvalidCredentials)
		}
		return nil, storeError("user", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		s.logger.Warn("Failed admin login", zap.String("username", user.Username))
		return nil, apperror.NewUnauthorizedError("invalid username or password", apperror.ErrInvalidCredentials)
	}

	session, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, apperror.NewInternalError("failed to create session", err)
	}

	s.logger.Info("Admin signed in", zap.String("username", user.Username))
	return &LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      newUserView(user),
	}, nil
}

// ------------------------------------------------------------------------------------------------------
func (s *adminService) Session(claims *auth.Claims) SessionInfo {
	info := SessionInfo{
		UserID:           claims.UserID,
		Username:         claims.Username,
		RemainingSeconds: int64(s.tokens.Remaining(claims).Seconds()),
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info
}

// ------------------------------------------------------------------------------------------------------
func (s *adminService) RefreshSession(token string) (*auth.Session, error) {
	session, _, err := s.tokens.Refresh(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, apperror.NewUnauthorizedError("session expired", apperror.ErrSessionExpired)
		}
		return nil, apperror.NewUnauthorizedError("invalid session", err)
	}
	return session, nil
}

// ------------------------------------------------------------------------------------------------------
// EnsureAdmin creates the first administrator when no users exist yet
func (s *adminService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return storeError("users", err)
	}
	if count > 0 {
		return nil
	}

	if _, err := s.CreateUser(ctx, username, password); err != nil {
		return err
	}
	s.logger.Info("Created initial admin user", zap.String("username", username))
	return nil
}

// ------------------------------------------------------------------------------------------------------
func (s *adminService) ListAgencies(ctx context.Context) ([]models.Agency, error) {
	agencies, err := s.agencies.List(ctx)
	if err != nil {
		return nil, storeError("agencies", err)
	}
	return agencies, nil
}

// ------------------------------------------------------------------------------------------------------
func (s *adminService) CreateAgency(ctx context.Context, name, logo string) (*models.Agency, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.NewValidationError("agency name is required", nil)
	}

	agency := &models.Agency{Name: name, Logo: strings.TrimSpace(logo)}
	if err := s.agencies.Create(ctx, agency); err != nil {
		return nil, storeError("agency", err)
	}
	return agency, nil
}

// ------------------------------------------------------------------------------------------------------
func (s *adminService) UpdateAgency(ctx context.Context, id uuid.UUID, name, logo string) (*models.Agency, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.NewValidationError("agency name is required", nil)
	}

	agency := &models.Agency{ID: id, Name: name, Logo: strings.TrimSpace(logo)}
	if err := s.agencies.Update(ctx, agency); err != nil {
		return nil, storeError("agency", err)
	}
	return agency, nil
}

// ------------------------------------------------------------------------------------------------------
func (s *adminService) DeleteAgency(ctx context.Context, id uuid.UUID) error {
	if err := s.agencies.Delete(ctx, id); err != nil {
		return storeError("agency", err)
	}
	return nil
}

// ------------------------------------------------------------------------------------------------------
// validateRecord applies the same required fields the chat extractor enforces
func validateRecord(record *models.ServiceRecord) error {
	record.Name = strings.TrimSpace(record.Name)
	if record.Name == "" {
		return apperror.NewValidationError("namaLayanan is required", nil)
	}
	if record.Requirements == nil {
		return apperror.NewValidationError("persyaratan is required", nil)
	}
	if record.Procedure == nil {
		return apperror.NewValidationError("sistemMekanismeProsedur is required", nil)
	}
	if strings.TrimSpace(record.Location) == "" {
		record.Location = models.DefaultLocation
	}
	return nil
}

// ------------------------------------------------------------------------------------------------------
func (s *adminService) CreateService(ctx context.Context, agencyID uuid.UUID, record models.ServiceRecord) (*models.Service, error) {
	if err := validateRecord(&record); err != nil {
		return nil, err
	}

	service := &models.Service{AgencyID: agencyID, ServiceRecord: record}
	if err := s.services.Create(ctx, service); err != nil {
		return nil, storeError("service", err)
	}
	return service, nil
}

// ------------------------------------------------------------------------------------------------------
func (s *adminService) UpdateService(ctx context.Context, id uuid.UUID, record models.ServiceRecord) (*models.Service, error) {
	if err := validateRecord(&record); err != nil {
		return nil, err
	}

	service := &models.Service{ID: id, ServiceRecord: record}
	if err := s.services.Update(ctx, service); err != nil {
		return nil, storeError("service", err)
	}
	return service, nil
}

// ------------------------------------------------------------------------------------------------------
func (s *adminService) DeleteService(ctx context.Context, id uuid.UUID) error {
	if err := s.services.Delete(ctx, id); err != nil {
		return storeError("service", err)
	}
	return nil
}

// ------------------------------------------------------------------------------------------------------
func (s *adminService) Profile(ctx context.Context) (*models.Profile, error) {
	profile, err := s.profile.Get(ctx)
	if err != nil {
		return nil, storeError("profile", err)
	}
	return profile, nil
}

// ------------------------------------------------------------------------------------------------------
func (s *adminService) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	profile.Name = strings.TrimSpace(profile.Name)
	if profile.Name == "" {
		return apperror.NewValidationError("profile name is required", nil)
	}
	if err := s.profile.Save(ctx, profile); err != nil {
		return storeError("profile", err)
	}
	return nil
}

// ------------------------------------------------------------------------------------------------------
func (s *adminService) ListUsers(ctx context.Context) ([]UserView, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storeError("users", err)
	}

	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, newUserView(&users[i]))
	}
	return views, nil
}

// ------------------------------------------------------------------------------------------------------
func (s *adminService) CreateUser(ctx context.Context, username, password string) (*UserView, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.NewValidationError("username is required", nil)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, apperror.NewValidationError(err.Error(), err)
		}
		return nil, apperror.NewInternalError("failed to hash password", err)
	}

	user := &models.User{Username: username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, storeError("user", err)
	}

	view := newUserView(user)
	return &view, nil
}

// ------------------------------------------------------------------------------------------------------
// UpdateUser renames a user and, when password is non-empty, replaces the password
func (s *adminService) UpdateUser(ctx context.Context, id uuid.UUID, username, password string) (*UserView, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.NewValidationError("username is required", nil)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("user", err)
	}
	user.Username = username

	if password != "" && password != models.MaskedPassword {
		hash, err := auth.HashPassword(password)
		if err != nil {
			if errors.Is(err, auth.ErrPasswordTooShort) {
				return nil, apperror.NewValidationError(err.Error(), err)
			}
			return nil, apperror.NewInternalError("failed to hash password", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, storeError("user", err)
	}

	view := newUserView(user)
	return &view, nil
}

// ------------------------------------------------------------------------------------------------------
func (s *adminService) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return apperror.NewConflictError("you cannot delete your own account", apperror.ErrSelfDelete)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return storeError("user", err)
	}
	return nil
}

// ------------------------------------------------------------------------------------------------------
// ChatLogs returns the logs of the last days, newest first
func (s *adminService) ChatLogs(ctx context.Context, days int) ([]models.ChatLog, error) {
	if days == 0 {
		days = defaultChatLogDays
	}
	if days < 0 || days > maxChatLogDays {
		return nil, apperror.NewValidationError("days must be between 1 and 365", nil)
	}

	since := s.now().AddDate(0, 0, -days)
	logs, err := s.chatLogs.ListSince(ctx, since)
	if err != nil {
		return nil, storeError("chat logs", err)
	}
	return logs, nil
}
