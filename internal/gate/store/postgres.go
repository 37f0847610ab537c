package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sentinel/internal/gate/models"
	id "sentinel/pkg/domain"
	dErrors "sentinel/pkg/domain-errors"
)

// PostgresStore persists gates in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed gate store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByID(ctx context.Context, gateID id.GateID) (*models.Gate, error) {
	var (
		gate        models.Gate
		rawID       string
		status      string
		heartbeatAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT gate_id, name, is_active, actuator_addr, COALESCE(secret_hash, ''),
		       last_heartbeat_at, COALESCE(integration_status, 'pending')
		FROM gates
		WHERE gate_id = $1
	`, string(gateID)).Scan(&rawID, &gate.Name, &gate.Active, &gate.ActuatorAddr,
		&gate.SecretHash, &heartbeatAt, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("gate %s not found", gateID))
		}
		return nil, fmt.Errorf("find gate by id: %w", err)
	}

	gate.ID = id.GateID(rawID)
	gate.IntegrationStatus = models.IntegrationStatus(status)
	if heartbeatAt.Valid {
		gate.LastHeartbeatAt = &heartbeatAt.Time
	}
	return &gate, nil
}

func (s *PostgresStore) RecordHeartbeat(ctx context.Context, gateID id.GateID, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE gates
		SET last_heartbeat_at = $2, integration_status = 'integrated'
		WHERE gate_id = $1
	`, string(gateID), at)
	if err != nil {
		return fmt.Errorf("record gate heartbeat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record gate heartbeat: %w", err)
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("gate %s not found", gateID))
	}
	return nil
}
