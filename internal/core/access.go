package core

import (
	"sort"

	"ghost-backend/internal/types"
)

// Role names an authorization capability. Inserters and spenders are
// independent allow-lists; the submitter is a single privileged
// principal; the owner passes every check.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleInserter  Role = "inserter"
	RoleSpender   Role = "spender"
	RoleSubmitter Role = "submitter"
)

// AccessList is the capability map {role -> principals}. Each entry
// point checks exactly one role, once, instead of scattering guards.
type AccessList struct {
	owner     types.Address
	submitter types.Address
	grants    map[Role]map[types.Address]struct{}
}

// NewAccessList returns an access list with the given owner and no
// other grants.
func NewAccessList(owner types.Address) *AccessList {
	return &AccessList{
		owner: owner,
		grants: map[Role]map[types.Address]struct{}{
			RoleInserter: {},
			RoleSpender:  {},
		},
	}
}

// Allows reports whether the principal holds the role. The owner holds
// every role.
func (a *AccessList) Allows(principal types.Address, role Role) bool {
	if principal == a.owner {
		return true
	}
	switch role {
	case RoleOwner:
		return false
	case RoleSubmitter:
		return principal == a.submitter && principal != (types.Address{})
	default:
		_, ok := a.grants[role][principal]
		return ok
	}
}

// Owner returns the owner principal.
func (a *AccessList) Owner() types.Address {
	return a.owner
}

// Submitter returns the privileged root submitter.
func (a *AccessList) Submitter() types.Address {
	return a.submitter
}

// Grant adds principal to the role's allow-list. Owner only.
func (a *AccessList) Grant(caller types.Address, role Role, principal types.Address) error {
	if caller != a.owner {
		return types.ErrUnauthorized
	}
	if principal == (types.Address{}) {
		return types.ErrInvalidInput
	}
	switch role {
	case RoleInserter, RoleSpender:
		a.grants[role][principal] = struct{}{}
		return nil
	case RoleSubmitter:
		a.submitter = principal
		return nil
	default:
		return types.ErrInvalidInput
	}
}

// Revoke removes principal from the role's allow-list. Owner only.
func (a *AccessList) Revoke(caller types.Address, role Role, principal types.Address) error {
	if caller != a.owner {
		return types.ErrUnauthorized
	}
	switch role {
	case RoleInserter, RoleSpender:
		delete(a.grants[role], principal)
		return nil
	case RoleSubmitter:
		if a.submitter == principal {
			a.submitter = types.Address{}
		}
		return nil
	default:
		return types.ErrInvalidInput
	}
}

// TransferOwnership hands the owner role to newOwner. Owner only.
func (a *AccessList) TransferOwnership(caller, newOwner types.Address) error {
	if caller != a.owner {
		return types.ErrUnauthorized
	}
	if newOwner == (types.Address{}) {
		return types.ErrInvalidInput
	}
	a.owner = newOwner
	return nil
}

// Members returns the role's principals in stable order.
func (a *AccessList) Members(role Role) []types.Address {
	switch role {
	case RoleOwner:
		return []types.Address{a.owner}
	case RoleSubmitter:
		if a.submitter == (types.Address{}) {
			return nil
		}
		return []types.Address{a.submitter}
	}
	out := make([]types.Address, 0, len(a.grants[role]))
	for p := range a.grants[role] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Hex() < out[j].Hex()
	})
	return out
}
