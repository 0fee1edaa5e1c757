package service

import (
	"context"
	"log"
	"time"

	"vaultapi/internal/model"
	"vaultapi/internal/repository"
)

// AuditRecorder writes activity log entries. From the vault's perspective
// the sink is fire-and-forget: a failed write is logged and never aborts the
// primary operation.
type AuditRecorder struct {
	repo repository.AuditRepository
}

// NewAuditRecorder constructs an AuditRecorder.
func NewAuditRecorder(repo repository.AuditRepository) *AuditRecorder {
	return &AuditRecorder{repo: repo}
}

// Record persists one entry for the acting principal.
func (a *AuditRecorder) Record(ctx context.Context, principal model.Principal, action model.ActionKind, details string) {
	entry := &model.ActivityLogEntry{
		Action:    action,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
	if principal.ID != "" {
		id := principal.ID
		entry.UserID = &id
	}
	if err := a.repo.Record(ctx, entry); err != nil {
		log.Printf("audit: failed to record %s entry: %v", action, err)
	}
}
