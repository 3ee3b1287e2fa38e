package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	identity "github.com/lidne/stockexchange/internal/domain/entity/identity"
	interfaces "github.com/lidne/stockexchange/internal/domain/interfaces"

	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs access tokens for authenticated brokers.
type TokenIssuer interface {
	Issue(principal identity.Principal) (string, time.Time, error)
}

// Token is the result of a successful login.
type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Service struct {
	store  interfaces.AccountStore
	tokens TokenIssuer
	cost   int
}

func NewService(store interfaces.AccountStore, tokens TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost, mainly to keep tests fast.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

func (s *Service) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return identity.ErrUsernameRequired
	}
	if len(password) < identity.MinPasswordLength {
		return identity.ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.CreateBroker(ctx, &identity.Broker{
		Username:     username,
		PasswordHash: hash,
	})
}

func (s *Service) AddRole(ctx context.Context, role string) error {
	role = strings.TrimSpace(role)
	if role == "" {
		return identity.ErrRoleNameRequired
	}
	return s.store.CreateRole(ctx, role)
}

// EnsureRoles creates the roles that do not exist yet.
func (s *Service) EnsureRoles(ctx context.Context, roles ...string) error {
	for _, role := range roles {
		if err := s.AddRole(ctx, role); err != nil && !errors.Is(err, identity.ErrRoleExists) {
			return fmt.Errorf("ensure role %q: %w", role, err)
		}
	}
	return nil
}

func (s *Service) AssignRole(ctx context.Context, username, role string) error {
	return s.store.AssignRole(ctx, strings.TrimSpace(username), strings.TrimSpace(role))
}

// Login checks the password and issues a token carrying the broker's roles.
func (s *Service) Login(ctx context.Context, username, password string) (Token, error) {
	broker, err := s.store.GetBroker(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, identity.ErrBrokerNotFound) {
			return Token{}, identity.ErrInvalidCredentials
		}
		return Token{}, err
	}
	if err := bcrypt.CompareHashAndPassword(broker.PasswordHash, []byte(password)); err != nil {
		return Token{}, identity.ErrInvalidCredentials
	}
	token, expiresAt, err := s.tokens.Issue(broker.Principal())
	if err != nil {
		return Token{}, fmt.Errorf("issue token: %w", err)
	}
	return Token{Token: token, ExpiresAt: expiresAt}, nil
}
