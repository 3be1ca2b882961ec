package request

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"baranex/internal/nexus/models"
	id "baranex/pkg/domain"
	"baranex/pkg/platform/sentinel"
)

// PostgresStore persists the transfer request ledger in PostgreSQL.
// This store is pure I/O - transition legality and authorization belong in
// the service layer; the store only enforces the compare-and-swap.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ledger store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, source, destination, datatype, dataid, status, initiator, reviewer, notes, created_at, resolved_at`

func (s *PostgresStore) Create(ctx context.Context, req *models.TransferRequest) error {
	query := `
		INSERT INTO transfer_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, $8, $9, NULL)
	`
	_, err := s.db.ExecContext(ctx, query,
		req.ID.String(),
		req.SourceBarangay.String(),
		req.DestinationBarangay.String(),
		string(req.DataType),
		pq.Array(recordIDStrings(req.ItemIDs)),
		string(req.Status),
		req.Initiator.String(),
		req.Notes,
		req.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create transfer request: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, requestID id.RequestID) (*models.TransferRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM transfer_requests
		WHERE id = $1
	`
	req, err := scanRequest(s.db.QueryRowContext(ctx, query, requestID.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get transfer request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) ListByDestination(ctx context.Context, barangayID id.BarangayID) ([]*models.TransferRequest, error) {
	return s.listWhere(ctx, "destination", barangayID)
}

func (s *PostgresStore) ListBySource(ctx context.Context, barangayID id.BarangayID) ([]*models.TransferRequest, error) {
	return s.listWhere(ctx, "source", barangayID)
}

func (s *PostgresStore) listWhere(ctx context.Context, column string, barangayID id.BarangayID) ([]*models.TransferRequest, error) {
	// column is one of two compile-time constants, never caller input.
	query := `
		SELECT ` + requestColumns + `
		FROM transfer_requests
		WHERE ` + column + ` = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, barangayID.String())
	if err != nil {
		return nil, fmt.Errorf("list transfer requests by %s: %w", column, err)
	}
	defer rows.Close()

	var out []*models.TransferRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfer requests: %w", err)
	}
	return out, nil
}

// TransitionStatus performs the ledger's compare-and-swap as one atomic
// conditional UPDATE. The WHERE clause carries the expected status, so two
// concurrent resolutions can never both succeed: the loser matches zero
// rows and observes ErrStaleState.
func (s *PostgresStore) TransitionStatus(
	ctx context.Context,
	requestID id.RequestID,
	expected, next models.Status,
	reviewer id.UserID,
	resolvedAt time.Time,
) (*models.TransferRequest, error) {
	query := `
		UPDATE transfer_requests
		SET status = $3, reviewer = $4, resolved_at = $5
		WHERE id = $1 AND status = $2
		RETURNING ` + requestColumns + `
	`
	req, err := scanRequest(s.db.QueryRowContext(ctx, query,
		requestID.String(),
		string(expected),
		string(next),
		reviewer.String(),
		resolvedAt,
	))
	if err == nil {
		return req, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("transition transfer request status: %w", err)
	}

	// Zero rows matched: distinguish a missing request from a lost race.
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM transfer_requests WHERE id = $1)`,
		requestID.String(),
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check transfer request existence: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return nil, sentinel.ErrStaleState
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.TransferRequest, error) {
	var (
		rawID          string
		rawSource      string
		rawDestination string
		rawDataType    string
		rawItems       []string
		rawStatus      string
		rawInitiator   string
		rawReviewer    sql.NullString
		notes          string
		createdAt      time.Time
		resolvedAt     sql.NullTime
	)
	err := row.Scan(
		&rawID, &rawSource, &rawDestination, &rawDataType,
		pq.Array(&rawItems), &rawStatus, &rawInitiator, &rawReviewer,
		&notes, &createdAt, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	requestID, err := id.ParseRequestID(rawID)
	if err != nil {
		return nil, err
	}
	source, err := id.ParseBarangayID(rawSource)
	if err != nil {
		return nil, err
	}
	destination, err := id.ParseBarangayID(rawDestination)
	if err != nil {
		return nil, err
	}
	initiator, err := id.ParseUserID(rawInitiator)
	if err != nil {
		return nil, err
	}
	items := make([]id.RecordID, 0, len(rawItems))
	for _, raw := range rawItems {
		rid, err := id.ParseRecordID(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, rid)
	}

	req := &models.TransferRequest{
		ID:                  requestID,
		SourceBarangay:      source,
		DestinationBarangay: destination,
		DataType:            models.DataType(rawDataType),
		ItemIDs:             items,
		Status:              models.Status(rawStatus),
		Initiator:           initiator,
		Notes:               notes,
		CreatedAt:           createdAt,
	}
	if rawReviewer.Valid {
		reviewer, err := id.ParseUserID(rawReviewer.String)
		if err != nil {
			return nil, err
		}
		req.Reviewer = &reviewer
	}
	if resolvedAt.Valid {
		at := resolvedAt.Time
		req.ResolvedAt = &at
	}
	return req, nil
}

func recordIDStrings(ids []id.RecordID) []string {
	out := make([]string, len(ids))
	for i, rid := range ids {
		out[i] = rid.String()
	}
	return out
}
