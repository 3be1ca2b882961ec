package records

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"baranex/internal/nexus/models"
	id "baranex/pkg/domain"
	"baranex/pkg/platform/sentinel"
	platformtx "baranex/pkg/platform/tx"
	"baranex/pkg/requestcontext"
)

// PostgresStore persists records in PostgreSQL. One table serves every data
// type; the type tag keeps ids scoped per catalog.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Put(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO records (id, barangay_id, datatype, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (datatype, id) DO UPDATE SET
			barangay_id = EXCLUDED.barangay_id,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID.String(),
		record.BarangayID.String(),
		string(record.DataType),
		[]byte(record.Payload),
		requestcontext.Now(ctx),
	)
	if err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, dataType models.DataType, recordID id.RecordID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE datatype = $1 AND id = $2`,
		string(dataType), recordID.String())
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListOwned(ctx context.Context, barangayID id.BarangayID, dataType models.DataType) ([]Summary, error) {
	query := `
		SELECT id, barangay_id, datatype
		FROM records
		WHERE barangay_id = $1 AND datatype = $2
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, barangayID.String(), string(dataType))
	if err != nil {
		return nil, fmt.Errorf("list owned records: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var rawID, rawBarangay, rawType string
		if err := rows.Scan(&rawID, &rawBarangay, &rawType); err != nil {
			return nil, fmt.Errorf("scan record summary: %w", err)
		}
		recordID, err := id.ParseRecordID(rawID)
		if err != nil {
			return nil, err
		}
		owner, err := id.ParseBarangayID(rawBarangay)
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{ID: recordID, BarangayID: owner, DataType: models.DataType(rawType)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record summaries: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetOwningBarangay(ctx context.Context, dataType models.DataType, ids []id.RecordID) (map[id.RecordID]id.BarangayID, error) {
	query := `
		SELECT id, barangay_id
		FROM records
		WHERE datatype = $1 AND id = ANY($2)
	`
	rows, err := s.db.QueryContext(ctx, query, string(dataType), pq.Array(recordIDStrings(ids)))
	if err != nil {
		return nil, fmt.Errorf("get owning barangay: %w", err)
	}
	defer rows.Close()

	owners := make(map[id.RecordID]id.BarangayID, len(ids))
	for rows.Next() {
		var rawID, rawBarangay string
		if err := rows.Scan(&rawID, &rawBarangay); err != nil {
			return nil, fmt.Errorf("scan record owner: %w", err)
		}
		recordID, err := id.ParseRecordID(rawID)
		if err != nil {
			return nil, err
		}
		owner, err := id.ParseBarangayID(rawBarangay)
		if err != nil {
			return nil, err
		}
		owners[recordID] = owner
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record owners: %w", err)
	}
	return owners, nil
}

// ReassignOwner flips ownership for the whole batch in one transaction. The
// UPDATE matches only rows still owned by from; when fewer than len(ids)
// rows match, the transaction rolls back and nothing changes.
//
// A transaction already carried in ctx (pkg/platform/tx) is joined instead;
// the caller then owns commit and rollback.
func (s *PostgresStore) ReassignOwner(ctx context.Context, dataType models.DataType, ids []id.RecordID, from, to id.BarangayID) error {
	if external, ok := platformtx.From(ctx); ok {
		return s.reassignOwner(ctx, external, dataType, ids, from, to)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reassign tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := s.reassignOwner(ctx, tx, dataType, ids, from, to); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reassign tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) reassignOwner(ctx context.Context, tx *sql.Tx, dataType models.DataType, ids []id.RecordID, from, to id.BarangayID) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE records
		SET barangay_id = $1, updated_at = $2
		WHERE datatype = $3 AND barangay_id = $4 AND id = ANY($5)
	`,
		to.String(),
		requestcontext.Now(ctx),
		string(dataType),
		from.String(),
		pq.Array(recordIDStrings(ids)),
	)
	if err != nil {
		return fmt.Errorf("reassign owner: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reassign owner rows affected: %w", err)
	}
	if affected != int64(len(ids)) {
		// Some id is missing or no longer owned by from. Abort so no
		// barangay ends up owning a fraction of the batch.
		return sentinel.ErrInvalidState
	}
	return nil
}

func recordIDStrings(ids []id.RecordID) []string {
	out := make([]string, len(ids))
	for i, rid := range ids {
		out[i] = rid.String()
	}
	return out
}
