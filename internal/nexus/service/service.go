// Package service orchestrates the transfer request lifecycle: creation,
// queue listings, and the accept/reject resolutions that drive record
// migration between barangays.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"baranex/internal/audit"
	"baranex/internal/nexus/metrics"
	"baranex/internal/nexus/models"
	"baranex/internal/nexus/store/request"
	id "baranex/pkg/domain"
	dErrors "baranex/pkg/domain-errors"
	"baranex/pkg/platform/sentinel"
	"baranex/pkg/requestcontext"
)

// Directory is the slice of the barangay directory the transfer service
// consumes: existence checks, labeling, and the membership authorization
// boundary.
type Directory interface {
	Exists(ctx context.Context, barangayID id.BarangayID) (bool, error)
	DisplayName(ctx context.Context, barangayID id.BarangayID) (string, error)
	IsMember(ctx context.Context, userID id.UserID, barangayID id.BarangayID) (bool, error)
}

// AuditEmitter publishes lifecycle events. Emission is fail-open and must
// never abort a transfer.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event)
}

// CreateRequestInput carries the caller-supplied fields of a new transfer
// request. The source barangay and initiator come from the authenticated
// context, never from the payload.
type CreateRequestInput struct {
	DestinationBarangay id.BarangayID
	DataType            models.DataType
	ItemIDs             []id.RecordID
	Notes               string
}

// Service coordinates the request ledger, the migration executor, the
// barangay directory, and the audit stream.
//
// Resolution ordering is fixed: an accept migrates records first and flips
// the ledger status second. A crash between the two leaves a pending
// request whose items already sit at the destination; the executor
// recognizes that state on retry and the accept converges.
type Service struct {
	requests  request.Store
	records   RecordStore
	executor  *Executor
	directory Directory
	auditor   AuditEmitter
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewService(
	requests request.Store,
	records RecordStore,
	directory Directory,
	auditor AuditEmitter,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		requests:  requests,
		records:   records,
		executor:  NewExecutor(records),
		directory: directory,
		auditor:   auditor,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer("baranex/nexus"),
	}
}

// CreateRequest registers a pending transfer from the caller's home
// barangay. The destination must exist, the caller must be a member of the
// source, and every selected item must currently be owned by the source.
// Ownership is advisory at this point; the accept re-validates it.
func (s *Service) CreateRequest(ctx context.Context, input CreateRequestInput) (*models.TransferRequest, error) {
	ctx, span := s.tracer.Start(ctx, "nexus.CreateRequest")
	defer span.End()

	initiator := requestcontext.UserID(ctx)
	source := requestcontext.BarangayID(ctx)
	if initiator.IsNil() || source.IsNil() {
		return nil, dErrors.New(dErrors.CodeForbidden, "authenticated barangay context required")
	}

	req, err := models.NewTransferRequest(
		source,
		input.DestinationBarangay,
		input.DataType,
		input.ItemIDs,
		initiator,
		input.Notes,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("nexus.request_id", req.ID.String()),
		attribute.String("nexus.datatype", req.DataType.String()),
		attribute.Int("nexus.item_count", len(req.ItemIDs)),
	)

	// The three preconditions hit independent stores; check them
	// concurrently and fail on the first violation.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		exists, err := s.directory.Exists(gctx, req.DestinationBarangay)
		if err != nil {
			return err
		}
		if !exists {
			return dErrors.New(dErrors.CodeInvalidInput, "destination barangay does not exist")
		}
		return nil
	})
	g.Go(func() error {
		member, err := s.directory.IsMember(gctx, initiator, source)
		if err != nil {
			return err
		}
		if !member {
			return dErrors.New(dErrors.CodeForbidden, "initiator is not a member of the source barangay")
		}
		return nil
	})
	g.Go(func() error {
		owners, err := s.records.GetOwningBarangay(gctx, req.DataType, req.ItemIDs)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate item ownership")
		}
		for _, itemID := range req.ItemIDs {
			owner, exists := owners[itemID]
			if !exists {
				return dErrors.New(dErrors.CodeInvalidInput, "item does not exist: "+itemID.String())
			}
			if owner != source {
				return dErrors.New(dErrors.CodeInvalidInput, "item is not owned by the source barangay: "+itemID.String())
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.requests.Create(ctx, req); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "transfer request already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create transfer request")
	}

	if s.metrics != nil {
		s.metrics.IncrementRequestsCreated()
	}
	s.emit(ctx, audit.ActionTransferRequested, req, initiator, 0)
	s.logger.InfoContext(ctx, "transfer request created",
		"request_id", req.ID.String(),
		"source", req.SourceBarangay.String(),
		"destination", req.DestinationBarangay.String(),
		"datatype", req.DataType.String(),
		"item_count", len(req.ItemIDs),
	)
	return req, nil
}

// GetRequest returns one request. Only members of the source or destination
// barangay may read it.
func (s *Service) GetRequest(ctx context.Context, requestID id.RequestID) (*models.TransferRequest, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	caller := requestcontext.UserID(ctx)
	authorized := false
	for _, barangayID := range []id.BarangayID{req.SourceBarangay, req.DestinationBarangay} {
		member, err := s.directory.IsMember(ctx, caller, barangayID)
		if err != nil {
			return nil, err
		}
		if member {
			authorized = true
			break
		}
	}
	if !authorized {
		return nil, dErrors.New(dErrors.CodeForbidden, "caller belongs to neither party of the transfer")
	}
	return req, nil
}

// ListIncoming returns the caller barangay's review queue, newest first.
func (s *Service) ListIncoming(ctx context.Context) ([]*models.TransferRequest, error) {
	barangayID, err := s.callerBarangay(ctx)
	if err != nil {
		return nil, err
	}
	reqs, err := s.requests.ListByDestination(ctx, barangayID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list incoming requests")
	}
	return reqs, nil
}

// ListOutgoing returns the transfers the caller's barangay has initiated,
// newest first.
func (s *Service) ListOutgoing(ctx context.Context) ([]*models.TransferRequest, error) {
	barangayID, err := s.callerBarangay(ctx)
	if err != nil {
		return nil, err
	}
	reqs, err := s.requests.ListBySource(ctx, barangayID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list outgoing requests")
	}
	return reqs, nil
}

// Accept resolves a pending request by migrating its records and then
// flipping the ledger status. The caller must be a member of the
// destination barangay. The returned count is the number of items moved.
//
// Migration runs before the status write: the status flip is the commit
// point, so an accepted request always means the records moved. Concurrent
// accepts race on the conditional status write; losers get a conflict and
// nothing double-applies because the migration itself is idempotent.
func (s *Service) Accept(ctx context.Context, requestID id.RequestID) (*models.TransferRequest, int, error) {
	ctx, span := s.tracer.Start(ctx, "nexus.Accept",
		trace.WithAttributes(attribute.String("nexus.request_id", requestID.String())))
	defer span.End()
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveAccept(start)
		}
	}()

	req, reviewer, err := s.authorizeResolution(ctx, requestID)
	if err != nil {
		return nil, 0, err
	}

	migrated, err := s.executor.Migrate(ctx, req.DataType, req.ItemIDs, req.SourceBarangay, req.DestinationBarangay)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeStaleSelection) {
			if s.metrics != nil {
				s.metrics.IncrementStaleSelections()
			}
			s.logger.WarnContext(ctx, "transfer accept failed on stale selection",
				"request_id", req.ID.String(),
				"error", err,
			)
		}
		return nil, 0, err
	}

	resolved, err := s.transition(ctx, req.ID, models.StatusAccepted, reviewer)
	if err != nil {
		return nil, 0, err
	}

	if s.metrics != nil {
		s.metrics.IncrementRequestsAccepted()
		s.metrics.AddItemsMigrated(migrated)
	}
	s.emit(ctx, audit.ActionTransferAccepted, resolved, reviewer, migrated)
	s.logger.InfoContext(ctx, "transfer request accepted",
		"request_id", resolved.ID.String(),
		"reviewer", reviewer.String(),
		"migrated", migrated,
	)
	return resolved, migrated, nil
}

// Reject resolves a pending request without touching any records. The
// caller must be a member of the destination barangay.
func (s *Service) Reject(ctx context.Context, requestID id.RequestID) (*models.TransferRequest, error) {
	ctx, span := s.tracer.Start(ctx, "nexus.Reject",
		trace.WithAttributes(attribute.String("nexus.request_id", requestID.String())))
	defer span.End()

	req, reviewer, err := s.authorizeResolution(ctx, requestID)
	if err != nil {
		return nil, err
	}

	resolved, err := s.transition(ctx, req.ID, models.StatusRejected, reviewer)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementRequestsRejected()
	}
	s.emit(ctx, audit.ActionTransferRejected, resolved, reviewer, 0)
	s.logger.InfoContext(ctx, "transfer request rejected",
		"request_id", resolved.ID.String(),
		"reviewer", reviewer.String(),
	)
	return resolved, nil
}

// authorizeResolution loads the request and enforces the resolution
// preconditions: the caller reviews for the destination barangay and the
// request is still pending. Authorization is checked before state so an
// outsider learns nothing and changes nothing.
func (s *Service) authorizeResolution(ctx context.Context, requestID id.RequestID) (*models.TransferRequest, id.UserID, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, id.UserID{}, err
	}

	reviewer := requestcontext.UserID(ctx)
	member, err := s.directory.IsMember(ctx, reviewer, req.DestinationBarangay)
	if err != nil {
		return nil, id.UserID{}, err
	}
	if !member {
		return nil, id.UserID{}, dErrors.New(dErrors.CodeForbidden, "only destination barangay members may resolve the request")
	}

	if err := req.CanResolve(); err != nil {
		return nil, id.UserID{}, err
	}
	return req, reviewer, nil
}

func (s *Service) getRequest(ctx context.Context, requestID id.RequestID) (*models.TransferRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "transfer request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load transfer request")
	}
	return req, nil
}

func (s *Service) transition(ctx context.Context, requestID id.RequestID, next models.Status, reviewer id.UserID) (*models.TransferRequest, error) {
	resolved, err := s.requests.TransitionStatus(ctx, requestID, models.StatusPending, next, reviewer, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrStaleState):
			return nil, dErrors.New(dErrors.CodeConflict, "request was resolved concurrently")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "transfer request not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update request status")
		}
	}
	return resolved, nil
}

// emit publishes an audit event with best-effort display labels. Label
// lookups degrade to empty strings so auditing never blocks a resolution.
func (s *Service) emit(ctx context.Context, action audit.Action, req *models.TransferRequest, actor id.UserID, migrated int) {
	sourceLabel, err := s.directory.DisplayName(ctx, req.SourceBarangay)
	if err != nil {
		sourceLabel = ""
	}
	destinationLabel, err := s.directory.DisplayName(ctx, req.DestinationBarangay)
	if err != nil {
		destinationLabel = ""
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:              action,
		RequestID:           req.ID,
		Actor:               actor,
		SourceBarangay:      req.SourceBarangay,
		DestinationBarangay: req.DestinationBarangay,
		SourceLabel:         sourceLabel,
		DestinationLabel:    destinationLabel,
		DataType:            req.DataType.String(),
		ItemCount:           len(req.ItemIDs),
		MigratedCount:       migrated,
	})
}

func (s *Service) callerBarangay(ctx context.Context) (id.BarangayID, error) {
	barangayID := requestcontext.BarangayID(ctx)
	if barangayID.IsNil() {
		return id.BarangayID{}, dErrors.New(dErrors.CodeForbidden, "authenticated barangay context required")
	}
	return barangayID, nil
}
