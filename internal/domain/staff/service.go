package staff

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ShubhamKarampure/HealthyTray/internal/platform/apperr"
	"github.com/ShubhamKarampure/HealthyTray/internal/platform/auth"
)

type Service struct {
	users  UserRepository
	tokens *auth.TokenIssuer
}

func NewService(users UserRepository, tokens *auth.TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens}
}

type RegisterInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	ContactInfo string `json:"contactInfo"`
}

// Register creates a staff account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, apperr.Validation("a valid email is required")
	}
	role, err := auth.ParseRole(in.Role)
	if err != nil {
		return nil, apperr.Validationf("role must be one of Manager, Pantry, Delivery")
	}
	if len(in.Password) < auth.MinPasswordLength {
		return nil, apperr.Validationf("password must be at least %d characters", auth.MinPasswordLength)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Store("register user", err)
	}

	u := &User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		ContactInfo:  strings.TrimSpace(in.ContactInfo),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

// Login checks credentials and issues a bearer token carrying the user's id
// and role. An unknown email is NotFound; a wrong password is Unauthenticated.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperr.Unauthenticated("invalid credentials")
		}
		return nil, apperr.Store("verify credentials", err)
	}

	token, exp, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, apperr.Store("issue token", err)
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

// ResolveUser returns the account for id.
func (s *Service) ResolveUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// ListByRole returns the id, name and contact of every user holding role.
func (s *Service) ListByRole(ctx context.Context, role auth.Role) ([]Summary, error) {
	if !role.Valid() {
		return nil, apperr.Validationf("invalid role %q", role)
	}
	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out, nil
}
