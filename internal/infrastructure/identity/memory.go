package identity

import (
	"context"
	"slices"
	"sync"
	"time"

	domain "github.com/lidne/stockexchange/internal/domain/entity/identity"
	interfaces "github.com/lidne/stockexchange/internal/domain/interfaces"
)

// MemoryStore keeps broker accounts in process memory, keyed by normalized username.
type MemoryStore struct {
	mu      sync.RWMutex
	brokers map[string]*domain.Broker
	roles   map[string]struct{}
	nextID  int64
}

var _ interfaces.AccountStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		brokers: make(map[string]*domain.Broker),
		roles:   make(map[string]struct{}),
	}
}

func (s *MemoryStore) CreateBroker(ctx context.Context, broker *domain.Broker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.NormalizeUsername(broker.Username)
	if _, ok := s.brokers[key]; ok {
		return domain.ErrBrokerExists
	}
	s.nextID++
	broker.ID = s.nextID
	broker.CreatedAt = time.Now().UTC()
	stored := *broker
	stored.Roles = slices.Clone(broker.Roles)
	s.brokers[key] = &stored
	return nil
}

func (s *MemoryStore) GetBroker(ctx context.Context, username string) (*domain.Broker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	broker, ok := s.brokers[domain.NormalizeUsername(username)]
	if !ok {
		return nil, domain.ErrBrokerNotFound
	}
	out := *broker
	out.Roles = slices.Clone(broker.Roles)
	return &out, nil
}

func (s *MemoryStore) ResolveBroker(ctx context.Context, name string) (*domain.Principal, error) {
	broker, err := s.GetBroker(ctx, name)
	if err != nil {
		return nil, err
	}
	principal := broker.Principal()
	return &principal, nil
}

func (s *MemoryStore) CreateRole(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles[name]; ok {
		return domain.ErrRoleExists
	}
	s.roles[name] = struct{}{}
	return nil
}

func (s *MemoryStore) AssignRole(ctx context.Context, username, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	broker, ok := s.brokers[domain.NormalizeUsername(username)]
	if !ok {
		return domain.ErrBrokerNotFound
	}
	if _, ok := s.roles[role]; !ok {
		return domain.ErrRoleNotFound
	}
	if !slices.Contains(broker.Roles, role) {
		broker.Roles = append(broker.Roles, role)
	}
	return nil
}
