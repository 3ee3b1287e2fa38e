package identity

import (
	"errors"
	"slices"
	"strings"
	"time"
)

const (
	RoleRead  = "Read"
	RoleWrite = "Write"
)

var (
	ErrBrokerNotFound     = errors.New("broker not found")
	ErrBrokerExists       = errors.New("broker already exists")
	ErrRoleNotFound       = errors.New("role not found")
	ErrRoleExists         = errors.New("role already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrUsernameRequired   = errors.New("username is required")
	ErrRoleNameRequired   = errors.New("role name is required")
)

// MinPasswordLength mirrors the account policy of the exchange.
const MinPasswordLength = 6

// NormalizeUsername is the lookup key of a username. Names differing only in letter
// case belong to the same broker.
func NormalizeUsername(username string) string {
	return strings.ToUpper(username)
}

// Broker is a registered account allowed to submit trades.
type Broker struct {
	ID           int64
	Username     string
	PasswordHash []byte
	Roles        []string
	CreatedAt    time.Time
}

// Principal is the resolved identity of a broker.
type Principal struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// Principal projects the broker onto its public identity.
func (b Broker) Principal() Principal {
	return Principal{Username: b.Username, Roles: slices.Clone(b.Roles)}
}

// HasRole reports whether the principal holds role.
func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

// HasAnyRole reports whether the principal holds at least one of roles.
func (p Principal) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}
