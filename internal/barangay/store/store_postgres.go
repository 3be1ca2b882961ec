package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"baranex/internal/barangay/models"
	id "baranex/pkg/domain"
	"baranex/pkg/platform/sentinel"
)

// PostgresStore persists the barangay directory in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateIfNameAvailable(ctx context.Context, barangay *models.Barangay) error {
	query := `
		INSERT INTO barangays (id, name, municipality, province, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		barangay.ID.String(),
		barangay.Name,
		barangay.Municipality,
		barangay.Province,
		barangay.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create barangay: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, barangayID id.BarangayID) (*models.Barangay, error) {
	query := `
		SELECT id, name, municipality, province, created_at
		FROM barangays
		WHERE id = $1
	`
	var (
		rawID        string
		name         string
		municipality string
		province     string
		createdAt    time.Time
	)
	err := s.db.QueryRowContext(ctx, query, barangayID.String()).
		Scan(&rawID, &name, &municipality, &province, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find barangay: %w", err)
	}

	parsed, err := id.ParseBarangayID(rawID)
	if err != nil {
		return nil, err
	}
	return &models.Barangay{
		ID:           parsed,
		Name:         name,
		Municipality: municipality,
		Province:     province,
		CreatedAt:    createdAt,
	}, nil
}

func (s *PostgresStore) AddMember(ctx context.Context, member *models.Member) error {
	query := `
		INSERT INTO barangay_members (user_id, barangay_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, barangay_id) DO UPDATE SET role = EXCLUDED.role
	`
	_, err := s.db.ExecContext(ctx, query,
		member.UserID.String(),
		member.BarangayID.String(),
		member.Role,
		member.JoinedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "foreign_key_violation" {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("add barangay member: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsMember(ctx context.Context, userID id.UserID, barangayID id.BarangayID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM barangay_members
			WHERE user_id = $1 AND barangay_id = $2
		)
	`, userID.String(), barangayID.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check barangay membership: %w", err)
	}
	return exists, nil
}
