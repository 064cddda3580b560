package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rustam/servhub/internal/auth"
	"github.com/rustam/servhub/internal/domain/identity/entity"
)

// AccountRepository defines the interface for account storage
type AccountRepository interface {
	Create(ctx context.Context, acc *entity.Account, fullName string) error
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)
}

// ProfileRepository defines the interface for profile storage
type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error)
	Search(ctx context.Context, query string, limit int) ([]entity.Profile, error)
	Update(ctx context.Context, id uuid.UUID, upd entity.ProfileUpdate) (*entity.Profile, error)
	SetPresence(ctx context.Context, id uuid.UUID, online bool, seenAt time.Time) error
}

// TokenIssuer signs session tokens
type TokenIssuer interface {
	IssuePair(userID uuid.UUID) (*auth.TokenPair, error)
	VerifyRefresh(token string) (uuid.UUID, error)
}

// PresencePublisher pushes presence changes to connected clients
type PresencePublisher interface {
	ProfileUpdated(p *entity.Profile)
}

// Service handles accounts, sessions and presence
type Service struct {
	accounts AccountRepository
	profiles ProfileRepository
	tokens   TokenIssuer
	events   PresencePublisher
}

// New creates a new identity service
func New(accounts AccountRepository, profiles ProfileRepository, tokens TokenIssuer, events PresencePublisher) *Service {
	return &Service{
		accounts: accounts,
		profiles: profiles,
		tokens:   tokens,
		events:   events,
	}
}

// SignUpInput represents input for creating an account
type SignUpInput struct {
	Email    string
	Password string
	FullName string
}

// SignUp creates an account with an empty profile
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*entity.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	fullName := strings.TrimSpace(in.FullName)

	if email == "" || !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return nil, fmt.Errorf("%w: a valid email is required", entity.ErrInvalidInput)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", entity.ErrInvalidInput)
	}
	if fullName == "" {
		return nil, fmt.Errorf("%w: full name is required", entity.ErrInvalidInput)
	}
	if len(fullName) > 100 {
		return nil, fmt.Errorf("%w: full name is too long", entity.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	acc := &entity.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.accounts.Create(ctx, acc, fullName); err != nil {
		return nil, err
	}

	return s.profiles.GetByID(ctx, acc.ID)
}

// SignInOutput represents a successful sign-in
type SignInOutput struct {
	Profile *entity.Profile
	Tokens  *auth.TokenPair
}

// SignIn checks credentials, marks the user online and issues tokens.
// Unknown email and wrong password are indistinguishable.
func (s *Service) SignIn(ctx context.Context, email, password string) (*SignInOutput, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	acc, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, entity.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, entity.ErrInvalidCredentials
	}

	tokens, err := s.tokens.IssuePair(acc.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing tokens: %w", err)
	}

	profile, err := s.SetOnline(ctx, acc.ID, true)
	if err != nil {
		return nil, err
	}

	return &SignInOutput{Profile: profile, Tokens: tokens}, nil
}

// Refresh exchanges a valid refresh token for a new pair. A token can
// outlive its account, so the row is checked before reissuing.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	acc, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, auth.ErrInvalidToken
	}

	return s.tokens.IssuePair(userID)
}

// SignOut marks the user offline
func (s *Service) SignOut(ctx context.Context, userID uuid.UUID) error {
	_, err := s.SetOnline(ctx, userID, false)
	return err
}

// SetOnline flips the presence flag, stamps last_seen and notifies
// subscribers. Clients that disappear without calling this stay
// online until swept or reconnected.
func (s *Service) SetOnline(ctx context.Context, userID uuid.UUID, online bool) (*entity.Profile, error) {
	if err := s.profiles.SetPresence(ctx, userID, online, time.Now()); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, entity.ErrProfileNotFound
	}

	if s.events != nil {
		s.events.ProfileUpdated(profile)
	}
	return profile, nil
}

// GetProfile returns one profile
func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, entity.ErrProfileNotFound
	}
	return profile, nil
}

// SearchProfiles finds profiles by display name
func (s *Service) SearchProfiles(ctx context.Context, query string, limit int) ([]entity.Profile, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.profiles.Search(ctx, query, limit)
}

// UpdateProfile applies a partial edit to the caller's own profile
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, upd entity.ProfileUpdate) (*entity.Profile, error) {
	if upd.FullName != nil {
		trimmed := strings.TrimSpace(*upd.FullName)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: full name cannot be empty", entity.ErrInvalidInput)
		}
		upd.FullName = &trimmed
	}

	profile, err := s.profiles.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, entity.ErrProfileNotFound
	}

	if s.events != nil {
		s.events.ProfileUpdated(profile)
	}
	return profile, nil
}
