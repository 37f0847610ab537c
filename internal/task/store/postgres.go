package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sentinel/internal/task/models"
	id "sentinel/pkg/domain"
	dErrors "sentinel/pkg/domain-errors"
)

// PostgresStore reads tasks from the scheduling system's PostgreSQL database.
// Vendor assignments live in task_vendors and gate authorizations in
// gate_task; both schemas are owned by the scheduler.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed task store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindForPair(ctx context.Context, vendorID, approverID id.IdentityID) ([]*models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.approver_id, t.start_time, t.end_time, t.status
		FROM tasks t
		JOIN task_vendors tv ON tv.task_id = t.id
		WHERE tv.vendor_id = $1 AND t.approver_id = $2
		ORDER BY t.id
	`, string(vendorID), string(approverID))
	if err != nil {
		return nil, fmt.Errorf("find tasks for pair: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	for _, task := range tasks {
		if err := s.loadAssociations(ctx, task); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, taskID id.TaskID) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, approver_id, start_time, end_time, status
		FROM tasks
		WHERE id = $1
	`, string(taskID))
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("task %s not found", taskID))
		}
		return nil, fmt.Errorf("find task by id: %w", err)
	}
	if err := s.loadAssociations(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *PostgresStore) loadAssociations(ctx context.Context, task *models.Task) error {
	vendorRows, err := s.db.QueryContext(ctx, `
		SELECT vendor_id FROM task_vendors WHERE task_id = $1 ORDER BY vendor_id
	`, string(task.ID))
	if err != nil {
		return fmt.Errorf("load task vendors: %w", err)
	}
	defer vendorRows.Close()
	for vendorRows.Next() {
		var vendorID string
		if err := vendorRows.Scan(&vendorID); err != nil {
			return fmt.Errorf("scan task vendor: %w", err)
		}
		task.VendorIDs = append(task.VendorIDs, id.IdentityID(vendorID))
	}
	if err := vendorRows.Err(); err != nil {
		return fmt.Errorf("iterate task vendors: %w", err)
	}

	gateRows, err := s.db.QueryContext(ctx, `
		SELECT gate_id FROM gate_task WHERE task_id = $1 ORDER BY gate_id
	`, string(task.ID))
	if err != nil {
		return fmt.Errorf("load task gates: %w", err)
	}
	defer gateRows.Close()
	for gateRows.Next() {
		var gateID string
		if err := gateRows.Scan(&gateID); err != nil {
			return fmt.Errorf("scan task gate: %w", err)
		}
		task.GateIDs = append(task.GateIDs, id.GateID(gateID))
	}
	return gateRows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		task       models.Task
		rawID      string
		approverID string
		status     string
	)
	if err := row.Scan(&rawID, &approverID, &task.Start, &task.End, &status); err != nil {
		return nil, err
	}
	task.ID = id.TaskID(rawID)
	task.ApproverID = id.IdentityID(approverID)
	task.Status = models.Status(status)
	return &task, nil
}
