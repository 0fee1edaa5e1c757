package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vaultapi/internal/model"
	"vaultapi/internal/repository"
)

// AccessPolicy decides file visibility and mutation rights. The rule is
// identical for reads and writes: elevated principals (staff or superuser)
// see everything, everyone else only their own files.
type AccessPolicy struct {
	users repository.UserDirectory
}

// NewAccessPolicy constructs an AccessPolicy.
func NewAccessPolicy(users repository.UserDirectory) *AccessPolicy {
	return &AccessPolicy{users: users}
}

// CanAccess reports whether the principal may view or mutate the record.
func (p *AccessPolicy) CanAccess(principal model.Principal, rec *model.FileRecord) bool {
	if principal.IsSuperuser || principal.IsStaff {
		return true
	}
	return principal.ID == rec.OwnerID
}

// AuthorizeOrFail returns ErrNotAuthorized when the access predicate is
// false. Every mutating and detail-revealing operation calls this before
// touching state.
func (p *AccessPolicy) AuthorizeOrFail(principal model.Principal, rec *model.FileRecord) error {
	if !p.CanAccess(principal, rec) {
		return ErrNotAuthorized
	}
	return nil
}

// ListFilters carries the caller-requested listing parameters before scope
// enforcement.
type ListFilters struct {
	Ordering      string
	OwnerUsername string
	AllFiles      bool
	Limit         int
	Offset        int
}

// VisibleScope derives the listing scope a principal is allowed to see.
// Non-elevated principals are always pinned to their own files, regardless
// of requested filters. Elevated principals get the unrestricted scope only
// when they explicitly ask for it (opt-in, not default-on), optionally
// narrowed to one owner by username; an unknown username fails with
// ErrNotFound.
func (p *AccessPolicy) VisibleScope(ctx context.Context, principal model.Principal, f ListFilters) (repository.Scope, error) {
	if !principal.Elevated() {
		return repository.Scope{OwnerID: principal.ID}, nil
	}
	if !f.AllFiles {
		return repository.Scope{OwnerID: principal.ID}, nil
	}
	if f.OwnerUsername == "" {
		return repository.Scope{All: true}, nil
	}
	ownerID, err := p.users.ResolveUsername(ctx, f.OwnerUsername)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.Scope{}, fmt.Errorf("%w: unknown owner %q", ErrNotFound, f.OwnerUsername)
		}
		return repository.Scope{}, err
	}
	return repository.Scope{OwnerID: ownerID}, nil
}
