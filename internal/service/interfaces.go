package service

import (
	"context"
	"time"

	"mpp-chat-portal/internal/auth"
	"mpp-chat-portal/internal/models"

	"github.com/google/uuid"
)

// ChatService defines the interface for chat operations
type ChatService interface {
	ProcessChat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	ProcessChatStream(ctx context.Context, req *ChatRequest, onToken func(string) error) (*ChatResponse, error)
	ResetConversation(ctx context.Context, conversationID string) error
	Transcript(ctx context.Context, conversationID string) ([]models.ChatTurn, error)
	Suggestions(query string) []string
	QuickCategories() []string
}

// AdminService defines the interface for the admin backend
type AdminService interface {
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	Session(claims *auth.Claims) SessionInfo
	RefreshSession(token string) (*auth.Session, error)
	EnsureAdmin(ctx context.Context, username, password string) error

	ListAgencies(ctx context.Context) ([]models.Agency, error)
	CreateAgency(ctx context.Context, name, logo string) (*models.Agency, error)
	UpdateAgency(ctx context.Context, id uuid.UUID, name, logo string) (*models.Agency, error)
	DeleteAgency(ctx context.Context, id uuid.UUID) error

	CreateService(ctx context.Context, agencyID uuid.UUID, record models.ServiceRecord) (*models.Service, error)
	UpdateService(ctx context.Context, id uuid.UUID, record models.ServiceRecord) (*models.Service, error)
	DeleteService(ctx context.Context, id uuid.UUID) error

	Profile(ctx context.Context) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error

	ListUsers(ctx context.Context) ([]UserView, error)
	CreateUser(ctx context.Context, username, password string) (*UserView, error)
	UpdateUser(ctx context.Context, id uuid.UUID, username, password string) (*UserView, error)
	DeleteUser(ctx context.Context, actorID, id uuid.UUID) error

	ChatLogs(ctx context.Context, days int) ([]models.ChatLog, error)
}

// ReplyObserver receives per-turn measurements
type ReplyObserver interface {
	ObserveReply(outcome string, promptTokens int)
}

// ChatLogWriter stores chat logs
type ChatLogWriter interface {
	Create(ctx context.Context, log *models.ChatLog) error
}

// CatalogReader lists the names of known services and agencies
type CatalogReader interface {
	CatalogNames(ctx context.Context) ([]string, error)
}

type AgencyStore interface {
	List(ctx context.Context) ([]models.Agency, error)
	Create(ctx context.Context, agency *models.Agency) error
	Update(ctx context.Context, agency *models.Agency) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ServiceStore interface {
	Create(ctx context.Context, service *models.Service) error
	Update(ctx context.Context, service *models.Service) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProfileStore interface {
	Get(ctx context.Context) (*models.Profile, error)
	Save(ctx context.Context, profile *models.Profile) error
}

type UserStore interface {
	List(ctx context.Context) ([]models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

type ChatLogStore interface {
	ChatLogWriter
	ListSince(ctx context.Context, since time.Time) ([]models.ChatLog, error)
}
