package repository

import (
	"context"

	"mpp-chat-portal/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository handles the single service-center profile row
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get returns the profile, or ErrNotFound when none has been saved
func (r *ProfileRepository) Get(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	var description, address, workdays, weekends, phone, email, instagram, facebook *string

	err := r.db.QueryRow(ctx, `
		SELECT name, description, address, operating_hours_workdays, operating_hours_weekends,
			contact_phone, contact_email, social_media_instagram, social_media_facebook
		FROM mpp_profile
		ORDER BY created_at
		LIMIT 1`).Scan(
		&p.Name,
		&description,
		&address,
		&workdays,
		&weekends,
		&phone,
		&email,
		&instagram,
		&facebook,
	)
	if err != nil {
		return nil, notFound(err)
	}

	p.Description = deref(description)
	p.Address = deref(address)
	p.OperatingHours.Workdays = deref(workdays)
	p.OperatingHours.Weekends = deref(weekends)
	p.Contact.Phone = deref(phone)
	p.Contact.Email = deref(email)
	p.SocialMedia.Instagram = deref(instagram)
	p.SocialMedia.Facebook = deref(facebook)
	return &p, nil
}

// Save updates the existing profile row or inserts the first one
func (r *ProfileRepository) Save(ctx context.Context, p *models.Profile) error {
	args := []any{
		p.Name,
		nullable(p.Description),
		nullable(p.Address),
		nullable(p.OperatingHours.Workdays),
		nullable(p.OperatingHours.Weekends),
		nullable(p.Contact.Phone),
		nullable(p.Contact.Email),
		nullable(p.SocialMedia.Instagram),
		nullable(p.SocialMedia.Facebook),
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE mpp_profile SET
			name = $1,
			description = $2,
			address = $3,
			operating_hours_workdays = $4,
			operating_hours_weekends = $5,
			contact_phone = $6,
			contact_email = $7,
			social_media_instagram = $8,
			social_media_facebook = $9,
			updated_at = NOW()`, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO mpp_profile (
			name, description, address, operating_hours_workdays, operating_hours_weekends,
			contact_phone, contact_email, social_media_instagram, social_media_facebook, id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, append(args, uuid.New())...)
	return err
}
