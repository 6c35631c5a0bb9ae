package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ayo6706/profitwave/internal/repository"
	"github.com/google/uuid"
)

// AuditService writes immutable audit trail entries for changes outside the ledger.
type AuditService struct{}

func NewAuditService() *AuditService {
	return &AuditService{}
}

// Write stores a single immutable audit record in the caller's transaction.
func (s *AuditService) Write(ctx context.Context, qtx repository.Querier, entityType string, entityID uuid.UUID, actorID *uuid.UUID, action, prevState, nextState string, metadata map[string]any) error {
	var raw []byte
	if len(metadata) > 0 {
		var err error
		raw, err = json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("encode audit metadata: %w", err)
		}
	}

	if _, err := qtx.InsertAuditLog(ctx, repository.InsertAuditLogParams{
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Action:     action,
		PrevState:  textParam(prevState),
		NextState:  textParam(nextState),
		Metadata:   raw,
	}); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// History lists audit entries for one entity, oldest first.
func (s *AuditService) History(ctx context.Context, q repository.Querier, entityType string, entityID uuid.UUID) ([]AuditEntry, error) {
	logs, err := q.ListAuditLogs(ctx, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	out := make([]AuditEntry, 0, len(logs))
	for _, l := range logs {
		out = append(out, AuditEntry{
			ID:        l.ID,
			ActorID:   l.ActorID,
			Action:    l.Action,
			PrevState: l.PrevState,
			NextState: l.NextState,
			Metadata:  json.RawMessage(l.Metadata),
			CreatedAt: l.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return out, nil
}

// AuditEntry is the API view of an audit record.
type AuditEntry struct {
	ID        int64           `json:"id"`
	ActorID   *uuid.UUID      `json:"actor_id,omitempty"`
	Action    string          `json:"action"`
	PrevState string          `json:"prev_state,omitempty"`
	NextState string          `json:"next_state,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt string          `json:"created_at"`
}

func textParam(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
