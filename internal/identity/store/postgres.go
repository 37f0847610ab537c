package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"sentinel/internal/identity/models"
	id "sentinel/pkg/domain"
	dErrors "sentinel/pkg/domain-errors"
)

// PostgresStore persists identities in PostgreSQL. Embeddings are stored in a
// pgvector column; schema and migrations are owned by the enrollment system.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed identity store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, identity *models.Identity) error {
	if identity == nil {
		return fmt.Errorf("identity is required")
	}

	var embedding any
	if len(identity.Embedding) > 0 {
		embedding = pgvector.NewVector(identity.Embedding)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identities (id, name, role, face_id, face_embedding, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NOW())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    role = EXCLUDED.role,
		    face_id = EXCLUDED.face_id,
		    face_embedding = EXCLUDED.face_embedding
	`, string(identity.ID), identity.Name, identity.Role, identity.FaceID, embedding)
	if err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, identityID id.IdentityID) (*models.Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, role, COALESCE(face_id, ''), face_embedding, created_at
		FROM identities
		WHERE id = $1
	`, string(identityID))
	identity, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("identity %s not found", identityID))
		}
		return nil, fmt.Errorf("find identity by id: %w", err)
	}
	return identity, nil
}

func (s *PostgresStore) FindByFaceID(ctx context.Context, faceID string) (*models.Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, role, COALESCE(face_id, ''), face_embedding, created_at
		FROM identities
		WHERE face_id = $1
	`, faceID)
	identity, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no identity with face ID %s", faceID))
		}
		return nil, fmt.Errorf("find identity by face id: %w", err)
	}
	return identity, nil
}

func (s *PostgresStore) ListEnrolled(ctx context.Context) ([]*models.Identity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, COALESCE(face_id, ''), face_embedding, created_at
		FROM identities
		WHERE face_embedding IS NOT NULL
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list enrolled identities: %w", err)
	}
	defer rows.Close()

	var enrolled []*models.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		enrolled = append(enrolled, identity)
	}
	return enrolled, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*models.Identity, error) {
	var (
		identity models.Identity
		rawID    string
		vec      pgvector.Vector
		hasVec   sql.Null[pgvector.Vector]
	)
	if err := row.Scan(&rawID, &identity.Name, &identity.Role, &identity.FaceID, &hasVec, &identity.CreatedAt); err != nil {
		return nil, err
	}
	identity.ID = id.IdentityID(rawID)
	if hasVec.Valid {
		vec = hasVec.V
		identity.Embedding = vec.Slice()
	}
	return &identity, nil
}
