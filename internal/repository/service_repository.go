package repository

import (
	"context"

	"mpp-chat-portal/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ServiceRepository handles database operations for agency services
type ServiceRepository struct {
	db *pgxpool.Pool
}

// NewServiceRepository creates a new service repository
func NewServiceRepository(db *pgxpool.Pool) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func listServices(ctx context.Context, db *pgxpool.Pool) ([]models.Service, error) {
	rows, err := db.Query(ctx, `
		SELECT id, agency_id, nama_layanan, dasar_hukum, persyaratan, sistem_mekanisme_prosedur,
			jangka_waktu, lokasi_gerai, biaya, catatan_tambahan
		FROM services
		ORDER BY nama_layanan`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := make([]models.Service, 0)
	for rows.Next() {
		var s models.Service
		var fee, note *string
		err := rows.Scan(
			&s.ID,
			&s.AgencyID,
			&s.Name,
			&s.LegalBasis,
			&s.Requirements,
			&s.Procedure,
			&s.Duration,
			&s.Location,
			&fee,
			&note,
		)
		if err != nil {
			return nil, err
		}
		s.Fee = deref(fee)
		s.Note = deref(note)
		services = append(services, s)
	}
	return services, rows.Err()
}

// Create adds a service to an agency
func (r *ServiceRepository) Create(ctx context.Context, service *models.Service) error {
	service.ID = uuid.New()
	query := `
		INSERT INTO services (
			id, agency_id, nama_layanan, dasar_hukum, persyaratan, sistem_mekanisme_prosedur,
			jangka_waktu, lokasi_gerai, biaya, catatan_tambahan
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)`

	_, err := r.db.Exec(
		ctx, query,
		service.ID,
		service.AgencyID,
		service.Name,
		service.LegalBasis,
		nonNil(service.Requirements),
		nonNil(service.Procedure),
		service.Duration,
		service.Location,
		nullable(service.Fee),
		nullable(service.Note),
	)
	return err
}

// Update replaces the details of a service
func (r *ServiceRepository) Update(ctx context.Context, service *models.Service) error {
	query := `
		UPDATE services SET
			nama_layanan = $2,
			dasar_hukum = $3,
			persyaratan = $4,
			sistem_mekanisme_prosedur = $5,
			jangka_waktu = $6,
			lokasi_gerai = $7,
			biaya = $8,
			catatan_tambahan = $9,
			updated_at = NOW()
		WHERE id = $1
		RETURNING agency_id`

	err := r.db.QueryRow(
		ctx, query,
		service.ID,
		service.Name,
		service.LegalBasis,
		nonNil(service.Requirements),
		nonNil(service.Procedure),
		service.Duration,
		service.Location,
		nullable(service.Fee),
		nullable(service.Note),
	).Scan(&service.AgencyID)
	return notFound(err)
}

// Delete removes a service
func (r *ServiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affected(tag)
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
