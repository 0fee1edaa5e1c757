package service

import (
	"context"
	"fmt"
	"strings"

	"vaultapi/internal/model"
	"vaultapi/internal/repository"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// FileListResult is the service-level DTO for file listings.
type FileListResult struct {
	Items []model.FileRecord `json:"data"`
	Total int                `json:"total"`
}

// ActivityFilters carries the audit listing parameters.
type ActivityFilters struct {
	Username string
	Ordering string
	Limit    int
	Offset   int
}

// ActivityListResult is the service-level DTO for audit log listings.
type ActivityListResult struct {
	Items []model.ActivityLogEntry `json:"data"`
	Total int                      `json:"total"`
}

// ParseOrdering maps a Django-style ordering token (optionally "-"-prefixed
// for descending) onto the whitelisted sort keys. Anything outside the
// whitelist is rejected; field names never pass through to SQL.
func ParseOrdering(token string) (repository.Ordering, error) {
	if token == "" {
		return repository.Ordering{Key: repository.SortUploadedAt, Desc: true}, nil
	}
	desc := strings.HasPrefix(token, "-")
	name := strings.TrimPrefix(token, "-")

	var key repository.SortKey
	switch name {
	case string(repository.SortUploadedAt):
		key = repository.SortUploadedAt
	case string(repository.SortOwnerUsername):
		key = repository.SortOwnerUsername
	case string(repository.SortDisplayName):
		key = repository.SortDisplayName
	case string(repository.SortSizeBytes):
		key = repository.SortSizeBytes
	default:
		return repository.Ordering{}, fmt.Errorf("%w: unknown ordering %q", ErrValidation, token)
	}
	return repository.Ordering{Key: key, Desc: desc}, nil
}

// List returns the file records visible to the principal under the requested
// filters, scope-enforced by the access policy.
func (s *vaultService) List(ctx context.Context, principal model.Principal, f ListFilters) (*FileListResult, error) {
	scope, err := s.policy.VisibleScope(ctx, principal, f)
	if err != nil {
		return nil, err
	}
	ordering, err := ParseOrdering(f.Ordering)
	if err != nil {
		return nil, err
	}

	res, err := s.files.List(ctx, repository.FileQuery{
		Scope:    scope,
		Ordering: ordering,
		Page:     clampPage(f.Limit, f.Offset),
	})
	if err != nil {
		return nil, err
	}
	return &FileListResult{Items: res.Items, Total: res.Total}, nil
}

// ListActivity returns audit log entries; only staff and superusers may read
// the log.
func (s *vaultService) ListActivity(ctx context.Context, principal model.Principal, f ActivityFilters) (*ActivityListResult, error) {
	if !principal.Elevated() {
		return nil, ErrNotAuthorized
	}

	q := repository.ActivityQuery{
		Username: f.Username,
		Desc:     true,
		Page:     clampPage(f.Limit, f.Offset),
	}
	switch f.Ordering {
	case "", "-timestamp":
	case "timestamp":
		q.Desc = false
	case "username":
		q.SortByUsername = true
		q.Desc = false
	case "-username":
		q.SortByUsername = true
	default:
		return nil, fmt.Errorf("%w: unknown ordering %q", ErrValidation, f.Ordering)
	}

	res, err := s.audits.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &ActivityListResult{Items: res.Items, Total: res.Total}, nil
}

func clampPage(limit, offset int) repository.PageQuery {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.PageQuery{Limit: limit, Offset: offset}
}
