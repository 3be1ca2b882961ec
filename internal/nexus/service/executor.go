package service

import (
	"context"
	"errors"
	"strings"

	"baranex/internal/nexus/models"
	id "baranex/pkg/domain"
	dErrors "baranex/pkg/domain-errors"
	"baranex/pkg/platform/sentinel"
)

// RecordStore is the slice of the record store the migration executor
// consumes. Reassignment must be atomic across ids (see internal/records).
type RecordStore interface {
	GetOwningBarangay(ctx context.Context, dataType models.DataType, ids []id.RecordID) (map[id.RecordID]id.BarangayID, error)
	ReassignOwner(ctx context.Context, dataType models.DataType, ids []id.RecordID, from, to id.BarangayID) error
}

// StaleSelectionError reports exactly which items disqualified an accept.
// The request stays pending; the reviewer can reject it or wait for a
// corrected resubmission.
type StaleSelectionError struct {
	// Missing ids no longer exist under the request's data type.
	Missing []id.RecordID
	// Conflicting ids exist but are not owned by the source barangay (and
	// the batch as a whole is not already at the destination).
	Conflicting []id.RecordID
}

func (e *StaleSelectionError) Error() string {
	var b strings.Builder
	b.WriteString("stale selection")
	if len(e.Missing) > 0 {
		b.WriteString("; missing: ")
		b.WriteString(joinRecordIDs(e.Missing))
	}
	if len(e.Conflicting) > 0 {
		b.WriteString("; not owned by source: ")
		b.WriteString(joinRecordIDs(e.Conflicting))
	}
	return b.String()
}

// OffendingIDs returns every disqualifying id, missing first.
func (e *StaleSelectionError) OffendingIDs() []id.RecordID {
	out := make([]id.RecordID, 0, len(e.Missing)+len(e.Conflicting))
	out = append(out, e.Missing...)
	out = append(out, e.Conflicting...)
	return out
}

func joinRecordIDs(ids []id.RecordID) string {
	parts := make([]string, len(ids))
	for i, rid := range ids {
		parts[i] = rid.String()
	}
	return strings.Join(parts, ", ")
}

// Executor atomically reassigns ownership of a batch of records from one
// barangay to another. It re-validates ownership at call time — the state
// captured at request creation is never trusted.
type Executor struct {
	records RecordStore
}

func NewExecutor(records RecordStore) *Executor {
	return &Executor{records: records}
}

// Migrate moves every item from source to destination, or nothing.
//
// The batch must be in exactly one of two states to succeed: fully at the
// source (normal path: reassign and report the count) or fully at the
// destination (a previous accept migrated the records but crashed before
// the status flip; the retry reports success without writing). Any other
// state — missing ids, foreign owners, a partially-moved batch — fails with
// StaleSelectionError and writes nothing.
func (e *Executor) Migrate(
	ctx context.Context,
	dataType models.DataType,
	itemIDs []id.RecordID,
	source, destination id.BarangayID,
) (int, error) {
	owners, err := e.records.GetOwningBarangay(ctx, dataType, itemIDs)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to re-validate item ownership")
	}

	stale := &StaleSelectionError{}
	atSource := 0
	atDestination := 0
	for _, itemID := range itemIDs {
		owner, exists := owners[itemID]
		switch {
		case !exists:
			stale.Missing = append(stale.Missing, itemID)
		case owner == source:
			atSource++
		case owner == destination:
			atDestination++
		default:
			stale.Conflicting = append(stale.Conflicting, itemID)
		}
	}

	// Crash-retry reconciliation: the whole batch already sits at the
	// destination, so a prior run completed the migration before losing
	// the status flip. Report success without touching the records.
	if atDestination == len(itemIDs) {
		return len(itemIDs), nil
	}

	if atSource != len(itemIDs) {
		// A partially-moved batch lands here too: the at-destination items
		// disqualify the selection because re-running the reassignment
		// could not be all-or-nothing.
		for _, itemID := range itemIDs {
			if owner, exists := owners[itemID]; exists && owner == destination {
				stale.Conflicting = append(stale.Conflicting, itemID)
			}
		}
		return 0, dErrors.Wrap(stale, dErrors.CodeStaleSelection, "item selection no longer valid for transfer")
	}

	if err := e.records.ReassignOwner(ctx, dataType, itemIDs, source, destination); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			// Ownership moved between validation and apply; the store rolled
			// the batch back so the selection is simply stale now. Re-fetch
			// the owners so the error names the items that moved.
			return 0, dErrors.Wrap(e.staleAfterReassign(ctx, dataType, itemIDs, source),
				dErrors.CodeStaleSelection, "item ownership changed during migration")
		}
		// Anything else is the store itself failing, not a stale selection.
		// Safe to retry: the transaction rolled back and the status never
		// flipped.
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to reassign item ownership")
	}
	return len(itemIDs), nil
}

// staleAfterReassign rebuilds the offending-id list after a lost
// reassignment race. A failed lookup degrades to an empty list; the
// staleness verdict itself already stands.
func (e *Executor) staleAfterReassign(ctx context.Context, dataType models.DataType, itemIDs []id.RecordID, source id.BarangayID) *StaleSelectionError {
	stale := &StaleSelectionError{}
	owners, err := e.records.GetOwningBarangay(ctx, dataType, itemIDs)
	if err != nil {
		return stale
	}
	for _, itemID := range itemIDs {
		owner, exists := owners[itemID]
		switch {
		case !exists:
			stale.Missing = append(stale.Missing, itemID)
		case owner != source:
			stale.Conflicting = append(stale.Conflicting, itemID)
		}
	}
	return stale
}
