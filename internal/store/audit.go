package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OracleAudit is one append-only record of oracle token usage.
type OracleAudit struct {
	DocumentID   string
	TaskType     string
	Provider     string
	Model        string
	TokensIn     int
	TokensOut    int
	CostEstimate float64
}

// WriteOracleAudit appends an oracle usage record.
func (s *Store) WriteOracleAudit(ctx context.Context, audit OracleAudit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO oracle_audit
		(id, document_id, task_type, provider, model, tokens_in, tokens_out, cost_estimate, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		uuid.New().String(),
		audit.DocumentID,
		audit.TaskType,
		audit.Provider,
		audit.Model,
		audit.TokensIn,
		audit.TokensOut,
		audit.CostEstimate,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write oracle audit: %w", err)
	}
	return nil
}
