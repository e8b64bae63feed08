package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"mpp-chat-portal/internal/auth"
	apperror "mpp-chat-portal/internal/error"
	"mpp-chat-portal/internal/models"

	"github.com/google/uuid"
)

type memUsers struct {
	users map[uuid.UUID]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[uuid.UUID]*models.User)}
}

func (m *memUsers) List(ctx context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *memUsers) Create(ctx context.Context, user *models.User) error {
	if _, err := m.GetByUsername(ctx, user.Username); err == nil {
		return apperror.ErrUsernameTaken
	}
	user.ID = uuid.New()
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memUsers) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperror.ErrNotFound
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memUsers) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return apperror.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memUsers) Count(ctx context.Context) (int, error) {
	return len(m.users), nil
}

type memAgencies struct {
	agencies []models.Agency
}

func (m *memAgencies) List(ctx context.Context) ([]models.Agency, error) { return m.agencies, nil }

func (m *memAgencies) Create(ctx context.Context, agency *models.Agency) error {
	agency.ID = uuid.New()
	m.agencies = append(m.agencies, *agency)
	return nil
}

func (m *memAgencies) Update(ctx context.Context, agency *models.Agency) error {
	for i := range m.agencies {
		if m.agencies[i].ID == agency.ID {
			m.agencies[i] = *agency
			return nil
		}
	}
	return apperror.ErrNotFound
}

func (m *memAgencies) Delete(ctx context.Context, id uuid.UUID) error {
	for i := range m.agencies {
		if m.agencies[i].ID == id {
			m.agencies = append(m.agencies[:i], m.agencies[i+1:]...)
			return nil
		}
	}
	return apperror.ErrNotFound
}

type memServices struct {
	created []models.Service
}

func (m *memServices) Create(ctx context.Context, service *models.Service) error {
	service.ID = uuid.New()
	m.created = append(m.created, *service)
	return nil
}

func (m *memServices) Update(ctx context.Context, service *models.Service) error {
	return apperror.ErrNotFound
}

func (m *memServices) Delete(ctx context.Context, id uuid.UUID) error { return nil }

type memProfile struct {
	profile *models.Profile
}

func (m *memProfile) Get(ctx context.Context) (*models.Profile, error) {
	if m.profile == nil {
		return nil, apperror.ErrNotFound
	}
	return m.profile, nil
}

func (m *memProfile) Save(ctx context.Context, profile *models.Profile) error {
	m.profile = profile
	return nil
}

type memChatLogs struct {
	since time.Time
}

func (m *memChatLogs) Create(ctx context.Context, log *models.ChatLog) error { return nil }

func (m *memChatLogs) ListSince(ctx context.Context, since time.Time) ([]models.ChatLog, error) {
	m.since = since
	return []models.ChatLog{}, nil
}

type adminFixture struct {
	service  *adminService
	users    *memUsers
	services *memServices
	logs     *memChatLogs
}

func newAdminFixture() adminFixture {
	users := newMemUsers()
	services := &memServices{}
	logs := &memChatLogs{}
	svc := NewAdminService(&memAgencies{}, services, &memProfile{}, users, logs, auth.NewTokenIssuer("secret", 0), nil)
	return adminFixture{service: svc.(*adminService), users: users, services: services, logs: logs}
}

func statusOf(err error) int {
	return apperror.GetHTTPStatusCode(err)
}

func TestAdminService_Login(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	if _, err := f.service.CreateUser(ctx, "admin", "rahasia123"); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	tests := []struct {
		name       string
		username   string
		password   string
		wantStatus int
	}{
		{"valid credentials", "admin", "rahasia123", http.StatusOK},
		{"wrong password", "admin", "salah", http.StatusUnauthorized},
		{"unknown user", "siapa", "rahasia123", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.service.Login(ctx, tt.username, tt.password)
			if got := statusOf(err); got != tt.wantStatus {
				t.Fatalf("Login() status = %d, want %d (err %v)", got, tt.wantStatus, err)
			}
			if err != nil {
				if !errors.Is(err, apperror.ErrInvalidCredentials) {
					t.Errorf("Expected ErrInvalidCredentials, got %v", err)
				}
				return
			}
			if resp.Token == "" || resp.User.Password != models.MaskedPassword {
				t.Errorf("Unexpected login response: %+v", resp)
			}
		})
	}
}

func TestAdminService_SessionAndRefresh(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	_, _ = f.service.CreateUser(ctx, "admin", "rahasia123")

	resp, err := f.service.Login(ctx, "admin", "rahasia123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	claims, err := f.service.tokens.Parse(resp.Token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	info := f.service.Session(claims)
	if info.Username != "admin" || info.RemainingSeconds <= 0 {
		t.Errorf("Unexpected session info: %+v", info)
	}

	if _, err := f.service.RefreshSession(resp.Token); err != nil {
		t.Errorf("RefreshSession() error = %v", err)
	}
	if _, err := f.service.RefreshSession("garbage"); statusOf(err) != http.StatusUnauthorized {
		t.Errorf("Expected unauthorized for garbage token, got %v", err)
	}
}

func TestAdminService_UsersAreMasked(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	_, _ = f.service.CreateUser(ctx, "admin", "rahasia123")
	_, _ = f.service.CreateUser(ctx, "petugas", "rahasia456")

	users, err := f.service.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("Expected 2 users, got %d", len(users))
	}
	for _, u := range users {
		if u.Password != models.MaskedPassword {
			t.Errorf("Expected masked password for %s, got %q", u.Username, u.Password)
		}
	}
}

func TestAdminService_CreateUser_Validation(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	_, _ = f.service.CreateUser(ctx, "admin", "rahasia123")

	tests := []struct {
		name       string
		username   string
		password   string
		wantStatus int
	}{
		{"empty username", " ", "rahasia123", http.StatusBadRequest},
		{"short password", "baru", "123", http.StatusBadRequest},
		{"duplicate username", "admin", "rahasia123", http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CreateUser(ctx, tt.username, tt.password)
			if got := statusOf(err); got != tt.wantStatus {
				t.Errorf("CreateUser() status = %d, want %d (err %v)", got, tt.wantStatus, err)
			}
		})
	}
}

func TestAdminService_UpdateUser_KeepsPasswordWhenMasked(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	created, _ := f.service.CreateUser(ctx, "admin", "rahasia123")

	if _, err := f.service.UpdateUser(ctx, created.ID, "admin2", models.MaskedPassword); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if _, err := f.service.Login(ctx, "admin2", "rahasia123"); err != nil {
		t.Errorf("Expected old password to remain valid, got %v", err)
	}

	if _, err := f.service.UpdateUser(ctx, created.ID, "admin2", "passwordbaru"); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if _, err := f.service.Login(ctx, "admin2", "passwordbaru"); err != nil {
		t.Errorf("Expected new password to be valid, got %v", err)
	}
}

func TestAdminService_DeleteUser(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	admin, _ := f.service.CreateUser(ctx, "admin", "rahasia123")
	other, _ := f.service.CreateUser(ctx, "petugas", "rahasia456")

	err := f.service.DeleteUser(ctx, admin.ID, admin.ID)
	if !errors.Is(err, apperror.ErrSelfDelete) || statusOf(err) != http.StatusConflict {
		t.Errorf("Expected self-delete conflict, got %v", err)
	}

	if err := f.service.DeleteUser(ctx, admin.ID, other.ID); err != nil {
		t.Errorf("DeleteUser() error = %v", err)
	}
	if err := f.service.DeleteUser(ctx, admin.ID, other.ID); statusOf(err) != http.StatusNotFound {
		t.Errorf("Expected not found on second delete, got %v", err)
	}
}

func TestAdminService_EnsureAdmin(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()

	if err := f.service.EnsureAdmin(ctx, "admin", "rahasia123"); err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}
	if err := f.service.EnsureAdmin(ctx, "lain", "rahasia123"); err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}

	if n, _ := f.users.Count(ctx); n != 1 {
		t.Errorf("Expected only the first admin to be created, got %d users", n)
	}
}

func TestAdminService_CreateService(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()
	agencyID := uuid.New()

	tests := []struct {
		name       string
		record     models.ServiceRecord
		wantStatus int
	}{
		{
			name:       "valid record gets default location",
			record:     models.ServiceRecord{Name: "KTP", Requirements: []string{"KK"}, Procedure: []string{"Daftar"}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing name",
			record:     models.ServiceRecord{Requirements: []string{}, Procedure: []string{"Daftar"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing requirements",
			record:     models.ServiceRecord{Name: "KTP", Procedure: []string{"Daftar"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing procedure",
			record:     models.ServiceRecord{Name: "KTP", Requirements: []string{}},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := f.service.CreateService(ctx, agencyID, tt.record)
			if got := statusOf(err); got != tt.wantStatus {
				t.Fatalf("CreateService() status = %d, want %d (err %v)", got, tt.wantStatus, err)
			}
			if err == nil && service.Location != models.DefaultLocation {
				t.Errorf("Expected default location, got %q", service.Location)
			}
		})
	}

	if _, err := f.service.UpdateService(ctx, uuid.New(), models.ServiceRecord{Name: "x", Requirements: []string{}, Procedure: []string{}}); statusOf(err) != http.StatusNotFound {
		t.Errorf("Expected not found for unknown service, got %v", err)
	}
}

func TestAdminService_Agencies(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()

	if _, err := f.service.CreateAgency(ctx, "  ", ""); statusOf(err) != http.StatusBadRequest {
		t.Errorf("Expected validation error for blank name, got %v", err)
	}

	agency, err := f.service.CreateAgency(ctx, "Disdukcapil", "https://example.com/logo.png")
	if err != nil {
		t.Fatalf("CreateAgency() error = %v", err)
	}
	if _, err := f.service.UpdateAgency(ctx, agency.ID, "Dinas Kependudukan", ""); err != nil {
		t.Errorf("UpdateAgency() error = %v", err)
	}
	if err := f.service.DeleteAgency(ctx, uuid.New()); statusOf(err) != http.StatusNotFound {
		t.Errorf("Expected not found, got %v", err)
	}

	agencies, _ := f.service.ListAgencies(ctx)
	if len(agencies) != 1 || agencies[0].Name != "Dinas Kependudukan" {
		t.Errorf("Unexpected agencies: %+v", agencies)
	}
}

func TestAdminService_Profile(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()

	if _, err := f.service.Profile(ctx); statusOf(err) != http.StatusNotFound {
		t.Errorf("Expected not found before the profile is saved, got %v", err)
	}
	if err := f.service.UpdateProfile(ctx, &models.Profile{}); statusOf(err) != http.StatusBadRequest {
		t.Errorf("Expected validation error for empty name, got %v", err)
	}
	if err := f.service.UpdateProfile(ctx, &models.Profile{Name: "MPP Pandeglang"}); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if p, _ := f.service.Profile(ctx); p == nil || p.Name != "MPP Pandeglang" {
		t.Errorf("Unexpected profile: %+v", p)
	}
}

func TestAdminService_ChatLogs(t *testing.T) {
	f := newAdminFixture()
	now := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }
	ctx := context.Background()

	if _, err := f.service.ChatLogs(ctx, 0); err != nil {
		t.Fatalf("ChatLogs() error = %v", err)
	}
	if want := now.AddDate(0, 0, -30); !f.logs.since.Equal(want) {
		t.Errorf("Expected default window from %v, got %v", want, f.logs.since)
	}

	for _, days := range []int{-1, 366} {
		if _, err := f.service.ChatLogs(ctx, days); statusOf(err) != http.StatusBadRequest {
			t.Errorf("Expected validation error for %d days, got %v", days, err)
		}
	}
}
