package repository

import (
	"context"
	"time"

	"mpp-chat-portal/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// unknownService is the category for questions not tied to a catalog entry
const unknownService = "Lainnya"

// ChatLogRepository stores answered questions for the admin dashboard
type ChatLogRepository struct {
	db *pgxpool.Pool
}

// NewChatLogRepository creates a new chat log repository
func NewChatLogRepository(db *pgxpool.Pool) *ChatLogRepository {
	return &ChatLogRepository{db: db}
}

// Create inserts a chat log entry
func (r *ChatLogRepository) Create(ctx context.Context, log *models.ChatLog) error {
	log.ID = uuid.New()
	return r.db.QueryRow(ctx, `
		INSERT INTO chat_logs (id, query, service_inquired, response_time, was_successful)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		log.ID, log.Query, nullable(log.ServiceInquired), log.ResponseTime, log.WasSuccessful,
	).Scan(&log.CreatedAt)
}

// ListSince returns entries created at or after since, newest first
func (r *ChatLogRepository) ListSince(ctx context.Context, since time.Time) ([]models.ChatLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, query, service_inquired, response_time, was_successful, created_at
		FROM chat_logs
		WHERE created_at >= $1
		ORDER BY created_at DESC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]models.ChatLog, 0)
	for rows.Next() {
		var l models.ChatLog
		var service *string
		var responseTime *int64
		var successful *bool
		if err := rows.Scan(&l.ID, &l.Query, &service, &responseTime, &successful, &l.CreatedAt); err != nil {
			return nil, err
		}

		l.ServiceInquired = deref(service)
		if l.ServiceInquired == "" {
			l.ServiceInquired = unknownService
		}
		if responseTime != nil {
			l.ResponseTime = *responseTime
		}
		if successful != nil {
			l.WasSuccessful = *successful
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
