package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore appends audit events to the audit_logs table. The table's
// schema and retention are owned by the surrounding platform.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed audit sink.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs
			(action, session_id, vendor_id, approver_id, task_id, gate_id,
			 success, reason, similarity_score, request_id, device, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''),
			$7, $8, $9, NULLIF($10, ''), NULLIF($11, ''), $12)
	`,
		string(event.Action),
		event.SessionID.String(),
		string(event.VendorID),
		string(event.ApproverID),
		string(event.TaskID),
		string(event.GateID),
		event.Success,
		event.Reason,
		event.Similarity,
		event.RequestID,
		event.Device,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}
