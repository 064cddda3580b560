package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rustam/servhub/internal/auth"
	"github.com/rustam/servhub/internal/config"
	"github.com/rustam/servhub/internal/domain/identity/entity"
)

type fakeStore struct {
	accounts map[string]*entity.Account
	profiles map[uuid.UUID]*entity.Profile
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: make(map[string]*entity.Account),
		profiles: make(map[uuid.UUID]*entity.Profile),
	}
}

func (s *fakeStore) Create(_ context.Context, acc *entity.Account, fullName string) error {
	if _, exists := s.accounts[acc.Email]; exists {
		return entity.ErrEmailTaken
	}
	stored := *acc
	s.accounts[acc.Email] = &stored
	s.profiles[acc.ID] = &entity.Profile{
		ID:        acc.ID,
		FullName:  fullName,
		CreatedAt: acc.CreatedAt,
	}
	return nil
}

func (s *fakeStore) GetByEmail(_ context.Context, email string) (*entity.Account, error) {
	acc, ok := s.accounts[email]
	if !ok {
		return nil, nil
	}
	copied := *acc
	return &copied, nil
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*entity.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (s *fakeStore) Search(_ context.Context, query string, limit int) ([]entity.Profile, error) {
	return nil, nil
}

func (s *fakeStore) Update(_ context.Context, id uuid.UUID, upd entity.ProfileUpdate) (*entity.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	if upd.FullName != nil {
		p.FullName = *upd.FullName
	}
	if upd.Bio != nil {
		p.Bio = *upd.Bio
	}
	copied := *p
	return &copied, nil
}

func (s *fakeStore) SetPresence(_ context.Context, id uuid.UUID, online bool, seenAt time.Time) error {
	if p, ok := s.profiles[id]; ok {
		p.IsOnline = online
		p.LastSeen = seenAt
	}
	return nil
}

// fakeAccounts narrows fakeStore to the account repository; its GetByID
// returns accounts where the embedded store's returns profiles.
type fakeAccounts struct {
	*fakeStore
}

func (s fakeAccounts) GetByID(_ context.Context, id uuid.UUID) (*entity.Account, error) {
	for _, acc := range s.accounts {
		if acc.ID == id {
			copied := *acc
			return &copied, nil
		}
	}
	return nil, nil
}

type recordingPresence struct {
	updates []*entity.Profile
}

func (r *recordingPresence) ProfileUpdated(p *entity.Profile) {
	r.updates = append(r.updates, p)
}

func newTestService() (*Service, *fakeStore, *recordingPresence) {
	store := newFakeStore()
	events := &recordingPresence{}
	tokens := auth.NewTokenIssuer(config.Auth{
		AccessSecret:  "test-access",
		RefreshSecret: "test-refresh",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	return New(fakeAccounts{store}, store, tokens, events), store, events
}

func TestSignUpValidation(t *testing.T) {
	svc, _, _ := newTestService()

	cases := []struct {
		name string
		in   SignUpInput
	}{
		{"missing email", SignUpInput{Password: "longenough", FullName: "Alice"}},
		{"malformed email", SignUpInput{Email: "not-an-email", Password: "longenough", FullName: "Alice"}},
		{"short password", SignUpInput{Email: "a@b.com", Password: "short", FullName: "Alice"}},
		{"missing name", SignUpInput{Email: "a@b.com", Password: "longenough"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.SignUp(context.Background(), tc.in); !errors.Is(err, entity.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSignUpNormalizesEmail(t *testing.T) {
	svc, store, _ := newTestService()

	profile, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "  Alice@Example.COM ",
		Password: "longenough",
		FullName: "Alice",
	})
	if err != nil {
		t.Fatalf("signing up: %v", err)
	}
	if _, ok := store.accounts["alice@example.com"]; !ok {
		t.Fatal("email should be stored lowercased and trimmed")
	}
	if profile.FullName != "Alice" {
		t.Fatalf("expected profile name Alice, got %q", profile.FullName)
	}
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	in := SignUpInput{Email: "a@b.com", Password: "longenough", FullName: "Alice"}

	if _, err := svc.SignUp(context.Background(), in); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	if _, err := svc.SignUp(context.Background(), in); !errors.Is(err, entity.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignInIssuesTokensAndMarksOnline(t *testing.T) {
	svc, _, events := newTestService()

	profile, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "a@b.com",
		Password: "longenough",
		FullName: "Alice",
	})
	if err != nil {
		t.Fatalf("signing up: %v", err)
	}

	out, err := svc.SignIn(context.Background(), "a@b.com", "longenough")
	if err != nil {
		t.Fatalf("signing in: %v", err)
	}
	if out.Tokens.Access == "" || out.Tokens.Refresh == "" {
		t.Fatal("expected both tokens")
	}
	if !out.Profile.IsOnline {
		t.Fatal("sign-in should mark the profile online")
	}
	if out.Profile.ID != profile.ID {
		t.Fatalf("expected profile %s, got %s", profile.ID, out.Profile.ID)
	}
	if len(events.updates) != 1 {
		t.Fatalf("expected one presence event, got %d", len(events.updates))
	}
}

func TestSignInFailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "a@b.com",
		Password: "longenough",
		FullName: "Alice",
	}); err != nil {
		t.Fatalf("signing up: %v", err)
	}

	_, unknownErr := svc.SignIn(context.Background(), "nobody@b.com", "longenough")
	_, wrongErr := svc.SignIn(context.Background(), "a@b.com", "wrong-password")

	if !errors.Is(unknownErr, entity.ErrInvalidCredentials) || !errors.Is(wrongErr, entity.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v and %v", unknownErr, wrongErr)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "a@b.com",
		Password: "longenough",
		FullName: "Alice",
	}); err != nil {
		t.Fatalf("signing up: %v", err)
	}
	out, err := svc.SignIn(context.Background(), "a@b.com", "longenough")
	if err != nil {
		t.Fatalf("signing in: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), out.Tokens.Refresh); err != nil {
		t.Fatalf("refresh with refresh token: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), out.Tokens.Access); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for access token, got %v", err)
	}
}

func TestRefreshRejectsDeletedAccount(t *testing.T) {
	svc, store, _ := newTestService()

	if _, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "a@b.com",
		Password: "longenough",
		FullName: "Alice",
	}); err != nil {
		t.Fatalf("signing up: %v", err)
	}
	out, err := svc.SignIn(context.Background(), "a@b.com", "longenough")
	if err != nil {
		t.Fatalf("signing in: %v", err)
	}

	delete(store.accounts, "a@b.com")

	if _, err := svc.Refresh(context.Background(), out.Tokens.Refresh); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for deleted account, got %v", err)
	}
}

func TestSignOutMarksOffline(t *testing.T) {
	svc, store, _ := newTestService()

	if _, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "a@b.com",
		Password: "longenough",
		FullName: "Alice",
	}); err != nil {
		t.Fatalf("signing up: %v", err)
	}
	out, err := svc.SignIn(context.Background(), "a@b.com", "longenough")
	if err != nil {
		t.Fatalf("signing in: %v", err)
	}

	if err := svc.SignOut(context.Background(), out.Profile.ID); err != nil {
		t.Fatalf("signing out: %v", err)
	}
	if store.profiles[out.Profile.ID].IsOnline {
		t.Fatal("sign-out should mark the profile offline")
	}
}

func TestUpdateProfileRejectsBlankName(t *testing.T) {
	svc, _, _ := newTestService()

	profile, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "a@b.com",
		Password: "longenough",
		FullName: "Alice",
	})
	if err != nil {
		t.Fatalf("signing up: %v", err)
	}

	blank := "   "
	if _, err := svc.UpdateProfile(context.Background(), profile.ID, entity.ProfileUpdate{FullName: &blank}); !errors.Is(err, entity.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.GetProfile(context.Background(), uuid.New()); !errors.Is(err, entity.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}
