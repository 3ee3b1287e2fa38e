package interfaces

import (
	"context"

	identity "github.com/lidne/stockexchange/internal/domain/entity/identity"
)

// BrokerDirectory resolves broker names to principals.
type BrokerDirectory interface {
	// ResolveBroker returns identity.ErrBrokerNotFound for unknown names.
	ResolveBroker(ctx context.Context, name string) (*identity.Principal, error)
}

// AccountStore persists broker accounts and roles.
type AccountStore interface {
	BrokerDirectory
	CreateBroker(ctx context.Context, broker *identity.Broker) error
	GetBroker(ctx context.Context, username string) (*identity.Broker, error)
	CreateRole(ctx context.Context, name string) error
	AssignRole(ctx context.Context, username, role string) error
}
