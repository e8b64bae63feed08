package repository

import (
	"context"
	"fmt"

	"mpp-chat-portal/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AgencyRepository handles database operations for agencies
type AgencyRepository struct {
	db *pgxpool.Pool
}

// NewAgencyRepository creates a new agency repository
func NewAgencyRepository(db *pgxpool.Pool) *AgencyRepository {
	return &AgencyRepository{db: db}
}

// List returns every agency with its services, ordered by name
func (r *AgencyRepository) List(ctx context.Context) ([]models.Agency, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, logo, created_at, updated_at
		FROM agencies
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agencies := make([]models.Agency, 0)
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var a models.Agency
		var logo *string
		if err := rows.Scan(&a.ID, &a.Name, &logo, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.Logo = deref(logo)
		a.Services = make([]models.Service, 0)
		index[a.ID] = len(agencies)
		agencies = append(agencies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	services, err := listServices(ctx, r.db)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	for _, s := range services {
		if i, ok := index[s.AgencyID]; ok {
			agencies[i].Services = append(agencies[i].Services, s)
		}
	}

	return agencies, nil
}

// Create inserts a new agency
func (r *AgencyRepository) Create(ctx context.Context, agency *models.Agency) error {
	agency.ID = uuid.New()
	query := `
		INSERT INTO agencies (id, name, logo)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query, agency.ID, agency.Name, nullable(agency.Logo)).
		Scan(&agency.CreatedAt, &agency.UpdatedAt)
	if err != nil {
		return err
	}
	agency.Services = make([]models.Service, 0)
	return nil
}

// Update changes the name and logo of an agency
func (r *AgencyRepository) Update(ctx context.Context, agency *models.Agency) error {
	query := `
		UPDATE agencies SET
			name = $2,
			logo = $3,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query, agency.ID, agency.Name, nullable(agency.Logo)).Scan(&agency.UpdatedAt)
	return notFound(err)
}

// Delete removes an agency and, through the foreign key, its services
func (r *AgencyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM agencies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affected(tag)
}

// CatalogNames returns service names followed by agency names
func (r *AgencyRepository) CatalogNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT nama_layanan FROM services
		UNION ALL
		SELECT name FROM agencies`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
