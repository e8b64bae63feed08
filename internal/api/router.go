package api

import (
	"net/http"

	"mpp-chat-portal/internal/api/handlers"
	"mpp-chat-portal/internal/auth"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig carries what the router needs besides the handler
type RouterConfig struct {
	Metrics        *Metrics
	Gatherer       prometheus.Gatherer
	Issuer         *auth.TokenIssuer
	AllowedOrigins []string
}

// NewRouter configures HTTP routes and wraps them in CORS
func NewRouter(handler *handlers.Handler, cfg RouterConfig, logger *zap.Logger) http.Handler {
	router := mux.NewRouter()

	// Apply logging middleware
	router.Use(func(next http.Handler) http.Handler {
		return LoggingMiddleware(logger, cfg.Metrics, next)
	})

	// Health check
	router.HandleFunc("/health", handler.HealthHandler).Methods("GET")

	// Metrics endpoint
	router.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	// Chat endpoints. GET is needed for the WebSocket upgrade.
	api.HandleFunc("/chat", handler.ChatHandler).Methods("GET", "POST")
	api.HandleFunc("/chat/{id}/reset", handler.ResetHandler).Methods("POST")
	api.HandleFunc("/chat/{id}/transcript", handler.TranscriptHandler).Methods("GET")
	api.HandleFunc("/suggestions", handler.SuggestionsHandler).Methods("GET")
	api.HandleFunc("/quick-categories", handler.QuickCategoriesHandler).Methods("GET")

	// Public catalog
	api.HandleFunc("/agencies", handler.ListAgenciesHandler).Methods("GET")
	api.HandleFunc("/profile", handler.ProfileHandler).Methods("GET")

	api.HandleFunc("/admin/login", handler.LoginHandler).Methods("POST")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(AuthMiddleware(cfg.Issuer, logger))

	admin.HandleFunc("/session", handler.SessionHandler).Methods("GET")
	admin.HandleFunc("/session/refresh", handler.RefreshSessionHandler).Methods("POST")

	admin.HandleFunc("/agencies", handler.ListAgenciesHandler).Methods("GET")
	admin.HandleFunc("/agencies", handler.CreateAgencyHandler).Methods("POST")
	admin.HandleFunc("/agencies/{id}", handler.UpdateAgencyHandler).Methods("PUT")
	admin.HandleFunc("/agencies/{id}", handler.DeleteAgencyHandler).Methods("DELETE")
	admin.HandleFunc("/agencies/{id}/services", handler.CreateServiceHandler).Methods("POST")
	admin.HandleFunc("/services/{id}", handler.UpdateServiceHandler).Methods("PUT")
	admin.HandleFunc("/services/{id}", handler.DeleteServiceHandler).Methods("DELETE")

	admin.HandleFunc("/profile", handler.ProfileHandler).Methods("GET")
	admin.HandleFunc("/profile", handler.UpdateProfileHandler).Methods("PUT")

	admin.HandleFunc("/users", handler.ListUsersHandler).Methods("GET")
	admin.HandleFunc("/users", handler.CreateUserHandler).Methods("POST")
	admin.HandleFunc("/users/{id}", handler.UpdateUserHandler).Methods("PUT")
	admin.HandleFunc("/users/{id}", handler.DeleteUserHandler).Methods("DELETE")

	admin.HandleFunc("/chat-logs", handler.ChatLogsHandler).Methods("GET")

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})(router)
}
