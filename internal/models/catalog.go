package models

import (
	"time"

	"github.com/google/uuid"
)

// Agency is a government office with a counter at the service center.
type Agency struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Logo      string    `json:"logo"`
	Services  []Service `json:"services"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Service is a catalog entry owned by an agency.
type Service struct {
	ID       uuid.UUID `json:"id"`
	AgencyID uuid.UUID `json:"agencyId"`
	ServiceRecord
}

// Profile describes the service center itself.
type Profile struct {
	Name           string         `json:"name"`
	Address        string         `json:"address"`
	Description    string         `json:"description"`
	OperatingHours OperatingHours `json:"operatingHours"`
	Contact        Contact        `json:"contact"`
	SocialMedia    SocialMedia    `json:"socialMedia"`
}

type OperatingHours struct {
	Workdays string `json:"workdays"`
	Weekends string `json:"weekends"`
}

type Contact struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type SocialMedia struct {
	Instagram string `json:"instagram"`
	Facebook  string `json:"facebook"`
}

// MaskedPassword is what the admin API returns in place of any password.
const MaskedPassword = "********"

// User is an administrator account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ChatLog records one answered question for the admin dashboard.
type ChatLog struct {
	ID              uuid.UUID `json:"id"`
	Query           string    `json:"query"`
	ServiceInquired string    `json:"serviceInquired"`
	ResponseTime    int64     `json:"responseTime"` // milliseconds
	WasSuccessful   bool      `json:"wasSuccessful"`
	CreatedAt       time.Time `json:"timestamp"`
}
