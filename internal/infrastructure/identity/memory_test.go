package identity

import (
	"context"
	"errors"
	"testing"

	domain "github.com/lidne/stockexchange/internal/domain/entity/identity"
)

func TestMemoryStoreResolveBroker(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.ResolveBroker(ctx, "alice"); !errors.Is(err, domain.ErrBrokerNotFound) {
		t.Fatalf("expected ErrBrokerNotFound, got %v", err)
	}

	broker := &domain.Broker{Username: "alice", PasswordHash: []byte("hash")}
	if err := store.CreateBroker(ctx, broker); err != nil {
		t.Fatalf("create: %v", err)
	}
	if broker.ID == 0 || broker.CreatedAt.IsZero() {
		t.Fatalf("id and creation time not assigned: %+v", broker)
	}
	if err := store.CreateRole(ctx, domain.RoleRead); err != nil {
		t.Fatalf("create role: %v", err)
	}
	if err := store.AssignRole(ctx, "alice", domain.RoleRead); err != nil {
		t.Fatalf("assign: %v", err)
	}

	principal, err := store.ResolveBroker(ctx, "alice")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if principal.Username != "alice" || !principal.HasRole(domain.RoleRead) || principal.HasRole(domain.RoleWrite) {
		t.Fatalf("unexpected principal %+v", principal)
	}
}

func TestMemoryStoreGetBrokerReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.CreateRole(ctx, domain.RoleRead)
	_ = store.CreateBroker(ctx, &domain.Broker{Username: "alice"})
	_ = store.AssignRole(ctx, "alice", domain.RoleRead)

	got, _ := store.GetBroker(ctx, "alice")
	got.Roles[0] = domain.RoleWrite

	again, _ := store.GetBroker(ctx, "alice")
	if again.Roles[0] != domain.RoleRead {
		t.Fatal("stored roles changed through a read result")
	}
}

func TestMemoryStoreDuplicates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.CreateBroker(ctx, &domain.Broker{Username: "alice"})
	if err := store.CreateBroker(ctx, &domain.Broker{Username: "alice"}); !errors.Is(err, domain.ErrBrokerExists) {
		t.Fatalf("expected ErrBrokerExists, got %v", err)
	}
	_ = store.CreateRole(ctx, "Read")
	if err := store.CreateRole(ctx, "Read"); !errors.Is(err, domain.ErrRoleExists) {
		t.Fatalf("expected ErrRoleExists, got %v", err)
	}
}

func TestMemoryStoreUsernamesIgnoreCase(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.CreateRole(ctx, domain.RoleWrite)
	if err := store.CreateBroker(ctx, &domain.Broker{Username: "alice"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.CreateBroker(ctx, &domain.Broker{Username: "Alice"}); !errors.Is(err, domain.ErrBrokerExists) {
		t.Fatalf("expected ErrBrokerExists, got %v", err)
	}
	if err := store.AssignRole(ctx, "ALICE", domain.RoleWrite); err != nil {
		t.Fatalf("assign: %v", err)
	}
	principal, err := store.ResolveBroker(ctx, "Alice")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if principal.Username != "alice" || !principal.HasRole(domain.RoleWrite) {
		t.Fatalf("unexpected principal %+v", principal)
	}
}
