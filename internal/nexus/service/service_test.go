package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Directory,AuditEmitter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"baranex/internal/audit"
	"baranex/internal/nexus/models"
	"baranex/internal/nexus/service/mocks"
	"baranex/internal/nexus/store/request"
	"baranex/internal/records"
	id "baranex/pkg/domain"
	dErrors "baranex/pkg/domain-errors"
	"baranex/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	directory *mocks.MockDirectory
	auditor   *mocks.MockAuditEmitter
	requests  *request.InMemory
	records   *records.InMemory
	service   *Service

	source      id.BarangayID
	destination id.BarangayID
	initiator   id.UserID
	reviewer    id.UserID
	now         time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.reset()
}

// SetupSubTest rebuilds the controller, mocks, and stores for every s.Run
// block. Expectations registered in one subtest must never be able to
// satisfy calls made by a sibling. The controller asserts its expectations
// through the subtest's cleanup hook.
func (s *ServiceSuite) SetupSubTest() {
	s.reset()
}

func (s *ServiceSuite) reset() {
	s.ctrl = gomock.NewController(s.T())
	s.directory = mocks.NewMockDirectory(s.ctrl)
	s.auditor = mocks.NewMockAuditEmitter(s.ctrl)
	s.requests = request.NewInMemory()
	s.records = records.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewService(s.requests, s.records, s.directory, s.auditor, nil, logger)

	s.source = id.NewBarangayID()
	s.destination = id.NewBarangayID()
	s.initiator = id.NewUserID()
	s.reviewer = id.NewUserID()
	s.now = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

	s.directory.EXPECT().DisplayName(gomock.Any(), gomock.Any()).Return("San Isidro, Pilar", nil).AnyTimes()
}

func (s *ServiceSuite) ctxAs(userID id.UserID, barangayID id.BarangayID) context.Context {
	ctx := requestcontext.WithUserID(context.Background(), userID)
	ctx = requestcontext.WithBarangayID(ctx, barangayID)
	return requestcontext.WithTime(ctx, s.now)
}

func (s *ServiceSuite) seedRecords(owner id.BarangayID, dataType models.DataType, count int) []id.RecordID {
	ids := make([]id.RecordID, 0, count)
	for i := 0; i < count; i++ {
		recordID := id.NewRecordID()
		s.Require().NoError(s.records.Put(context.Background(), &records.Record{
			ID:         recordID,
			BarangayID: owner,
			DataType:   dataType,
			Payload:    []byte(`{}`),
		}))
		ids = append(ids, recordID)
	}
	return ids
}

// seedPendingRequest plants a pending request directly in the ledger,
// bypassing creation-time checks.
func (s *ServiceSuite) seedPendingRequest(itemIDs []id.RecordID) *models.TransferRequest {
	req, err := models.NewTransferRequest(
		s.source, s.destination,
		models.DataTypeResident, itemIDs,
		s.initiator, "annual boundary adjustment", s.now,
	)
	s.Require().NoError(err)
	s.Require().NoError(s.requests.Create(context.Background(), req))
	return req
}

// =============================================================================
// CreateRequest
// =============================================================================

func (s *ServiceSuite) TestCreateRequest() {
	s.Run("creates a pending request and emits an audit event", func() {
		itemIDs := s.seedRecords(s.source, models.DataTypeResident, 2)
		s.directory.EXPECT().Exists(gomock.Any(), s.destination).Return(true, nil).AnyTimes()
		s.directory.EXPECT().IsMember(gomock.Any(), s.initiator, s.source).Return(true, nil).AnyTimes()

		var emitted audit.Event
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Do(func(_ context.Context, event audit.Event) {
			emitted = event
		})

		req, err := s.service.CreateRequest(s.ctxAs(s.initiator, s.source), CreateRequestInput{
			DestinationBarangay: s.destination,
			DataType:            models.DataTypeResident,
			ItemIDs:             itemIDs,
			Notes:               "households moved across the river",
		})
		s.Require().NoError(err)
		s.Equal(models.StatusPending, req.Status)
		s.Equal(s.source, req.SourceBarangay)
		s.Equal(s.initiator, req.Initiator)
		s.Nil(req.Reviewer)
		s.Nil(req.ResolvedAt)
		s.Equal(s.now, req.CreatedAt)

		stored, err := s.requests.GetByID(context.Background(), req.ID)
		s.Require().NoError(err)
		s.Equal(itemIDs, stored.ItemIDs)

		s.Equal(audit.ActionTransferRequested, emitted.Action)
		s.Equal(req.ID, emitted.RequestID)
		s.Equal(2, emitted.ItemCount)
	})

	s.Run("unknown destination is rejected", func() {
		itemIDs := s.seedRecords(s.source, models.DataTypeResident, 1)
		s.directory.EXPECT().Exists(gomock.Any(), s.destination).Return(false, nil).AnyTimes()
		s.directory.EXPECT().IsMember(gomock.Any(), s.initiator, s.source).Return(true, nil).AnyTimes()

		_, err := s.service.CreateRequest(s.ctxAs(s.initiator, s.source), CreateRequestInput{
			DestinationBarangay: s.destination,
			DataType:            models.DataTypeResident,
			ItemIDs:             itemIDs,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("non-member initiator is forbidden", func() {
		itemIDs := s.seedRecords(s.source, models.DataTypeResident, 1)
		s.directory.EXPECT().Exists(gomock.Any(), s.destination).Return(true, nil).AnyTimes()
		s.directory.EXPECT().IsMember(gomock.Any(), s.initiator, s.source).Return(false, nil).AnyTimes()

		_, err := s.service.CreateRequest(s.ctxAs(s.initiator, s.source), CreateRequestInput{
			DestinationBarangay: s.destination,
			DataType:            models.DataTypeResident,
			ItemIDs:             itemIDs,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		incoming, err := s.requests.ListByDestination(context.Background(), s.destination)
		s.Require().NoError(err)
		s.Empty(incoming)
	})

	s.Run("item owned by another barangay is rejected", func() {
		elsewhere := id.NewBarangayID()
		itemIDs := s.seedRecords(elsewhere, models.DataTypeResident, 1)
		s.directory.EXPECT().Exists(gomock.Any(), s.destination).Return(true, nil).AnyTimes()
		s.directory.EXPECT().IsMember(gomock.Any(), s.initiator, s.source).Return(true, nil).AnyTimes()

		_, err := s.service.CreateRequest(s.ctxAs(s.initiator, s.source), CreateRequestInput{
			DestinationBarangay: s.destination,
			DataType:            models.DataTypeResident,
			ItemIDs:             itemIDs,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("transfers to the caller's own barangay are invalid", func() {
		_, err := s.service.CreateRequest(s.ctxAs(s.initiator, s.source), CreateRequestInput{
			DestinationBarangay: s.source,
			DataType:            models.DataTypeResident,
			ItemIDs:             []id.RecordID{id.NewRecordID()},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("missing auth context is forbidden", func() {
		_, err := s.service.CreateRequest(context.Background(), CreateRequestInput{
			DestinationBarangay: s.destination,
			DataType:            models.DataTypeResident,
			ItemIDs:             []id.RecordID{id.NewRecordID()},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

// =============================================================================
// Accept
// =============================================================================

func (s *ServiceSuite) TestAccept() {
	s.Run("migrates the batch and resolves the request", func() {
		itemIDs := s.seedRecords(s.source, models.DataTypeResident, 3)
		req := s.seedPendingRequest(itemIDs)
		s.directory.EXPECT().IsMember(gomock.Any(), s.reviewer, s.destination).Return(true, nil)

		var emitted audit.Event
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Do(func(_ context.Context, event audit.Event) {
			emitted = event
		})

		resolved, migrated, err := s.service.Accept(s.ctxAs(s.reviewer, s.destination), req.ID)
		s.Require().NoError(err)
		s.Equal(3, migrated)
		s.Equal(models.StatusAccepted, resolved.Status)
		s.Require().NotNil(resolved.Reviewer)
		s.Equal(s.reviewer, *resolved.Reviewer)
		s.Require().NotNil(resolved.ResolvedAt)
		s.Equal(s.now, *resolved.ResolvedAt)

		owners, err := s.records.GetOwningBarangay(context.Background(), models.DataTypeResident, itemIDs)
		s.Require().NoError(err)
		for _, itemID := range itemIDs {
			s.Equal(s.destination, owners[itemID])
		}

		s.Equal(audit.ActionTransferAccepted, emitted.Action)
		s.Equal(3, emitted.MigratedCount)
	})

	s.Run("non-member reviewer changes nothing", func() {
		itemIDs := s.seedRecords(s.source, models.DataTypeResident, 2)
		req := s.seedPendingRequest(itemIDs)
		outsider := id.NewUserID()
		s.directory.EXPECT().IsMember(gomock.Any(), outsider, s.destination).Return(false, nil)

		_, _, err := s.service.Accept(s.ctxAs(outsider, s.destination), req.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		stored, err := s.requests.GetByID(context.Background(), req.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, stored.Status)

		owners, err := s.records.GetOwningBarangay(context.Background(), models.DataTypeResident, itemIDs)
		s.Require().NoError(err)
		for _, itemID := range itemIDs {
			s.Equal(s.source, owners[itemID])
		}
	})

	s.Run("source members cannot accept their own request", func() {
		itemIDs := s.seedRecords(s.source, models.DataTypeResident, 1)
		req := s.seedPendingRequest(itemIDs)
		s.directory.EXPECT().IsMember(gomock.Any(), s.initiator, s.destination).Return(false, nil)

		_, _, err := s.service.Accept(s.ctxAs(s.initiator, s.source), req.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("resolved request conflicts on re-accept", func() {
		itemIDs := s.seedRecords(s.source, models.DataTypeResident, 1)
		req := s.seedPendingRequest(itemIDs)
		s.directory.EXPECT().IsMember(gomock.Any(), s.reviewer, s.destination).Return(true, nil).Times(2)
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any())

		_, _, err := s.service.Accept(s.ctxAs(s.reviewer, s.destination), req.ID)
		s.Require().NoError(err)

		_, _, err = s.service.Accept(s.ctxAs(s.reviewer, s.destination), req.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("stale selection leaves the request pending", func() {
		itemIDs := s.seedRecords(s.source, models.DataTypeResident, 2)
		req := s.seedPendingRequest(itemIDs)
		// Source deletes one record after filing the request.
		s.Require().NoError(s.records.Delete(context.Background(), models.DataTypeResident, itemIDs[1]))
		s.directory.EXPECT().IsMember(gomock.Any(), s.reviewer, s.destination).Return(true, nil)

		_, _, err := s.service.Accept(s.ctxAs(s.reviewer, s.destination), req.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeStaleSelection))

		var stale *StaleSelectionError
		s.Require().True(errors.As(err, &stale))
		s.Equal([]id.RecordID{itemIDs[1]}, stale.Missing)

		stored, err := s.requests.GetByID(context.Background(), req.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, stored.Status)

		owners, err := s.records.GetOwningBarangay(context.Background(), models.DataTypeResident, itemIDs[:1])
		s.Require().NoError(err)
		s.Equal(s.source, owners[itemIDs[0]])
	})

	s.Run("retry after a crash between migration and status flip succeeds", func() {
		// Records already sit at the destination; the ledger still says
		// pending. Exactly the state a mid-accept crash leaves behind.
		itemIDs := s.seedRecords(s.destination, models.DataTypeResident, 2)
		req := s.seedPendingRequest(itemIDs)
		s.directory.EXPECT().IsMember(gomock.Any(), s.reviewer, s.destination).Return(true, nil)
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any())

		resolved, migrated, err := s.service.Accept(s.ctxAs(s.reviewer, s.destination), req.ID)
		s.Require().NoError(err)
		s.Equal(2, migrated)
		s.Equal(models.StatusAccepted, resolved.Status)
	})

	s.Run("record store failure leaves the request pending", func() {
		mockRecords := mocks.NewMockRecordStore(s.ctrl)
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		svc := NewService(s.requests, mockRecords, s.directory, s.auditor, nil, logger)

		itemIDs := []id.RecordID{id.NewRecordID()}
		req := s.seedPendingRequest(itemIDs)
		s.directory.EXPECT().IsMember(gomock.Any(), s.reviewer, s.destination).Return(true, nil)
		mockRecords.EXPECT().
			GetOwningBarangay(gomock.Any(), models.DataTypeResident, itemIDs).
			Return(nil, errors.New("connection reset"))

		_, _, err := svc.Accept(s.ctxAs(s.reviewer, s.destination), req.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))

		stored, err := s.requests.GetByID(context.Background(), req.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, stored.Status)
	})

	s.Run("unknown request id is not found", func() {
		_, _, err := s.service.Accept(s.ctxAs(s.reviewer, s.destination), id.NewRequestID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Reject
// =============================================================================

func (s *ServiceSuite) TestReject() {
	s.Run("resolves without touching records", func() {
		itemIDs := s.seedRecords(s.source, models.DataTypeResident, 2)
		req := s.seedPendingRequest(itemIDs)
		s.directory.EXPECT().IsMember(gomock.Any(), s.reviewer, s.destination).Return(true, nil)

		var emitted audit.Event
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Do(func(_ context.Context, event audit.Event) {
			emitted = event
		})

		resolved, err := s.service.Reject(s.ctxAs(s.reviewer, s.destination), req.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, resolved.Status)
		s.Require().NotNil(resolved.Reviewer)
		s.Equal(s.reviewer, *resolved.Reviewer)

		owners, err := s.records.GetOwningBarangay(context.Background(), models.DataTypeResident, itemIDs)
		s.Require().NoError(err)
		for _, itemID := range itemIDs {
			s.Equal(s.source, owners[itemID])
		}

		s.Equal(audit.ActionTransferRejected, emitted.Action)
		s.Zero(emitted.MigratedCount)
	})

	s.Run("non-member reviewer is forbidden", func() {
		req := s.seedPendingRequest(s.seedRecords(s.source, models.DataTypeResident, 1))
		outsider := id.NewUserID()
		s.directory.EXPECT().IsMember(gomock.Any(), outsider, s.destination).Return(false, nil)

		_, err := s.service.Reject(s.ctxAs(outsider, s.destination), req.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejected request conflicts on re-reject", func() {
		req := s.seedPendingRequest(s.seedRecords(s.source, models.DataTypeResident, 1))
		s.directory.EXPECT().IsMember(gomock.Any(), s.reviewer, s.destination).Return(true, nil).Times(2)
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any())

		_, err := s.service.Reject(s.ctxAs(s.reviewer, s.destination), req.ID)
		s.Require().NoError(err)

		_, err = s.service.Reject(s.ctxAs(s.reviewer, s.destination), req.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

// =============================================================================
// Reads
// =============================================================================

func (s *ServiceSuite) TestGetRequest() {
	s.Run("members of either party may read", func() {
		req := s.seedPendingRequest(s.seedRecords(s.source, models.DataTypeResident, 1))
		s.directory.EXPECT().IsMember(gomock.Any(), s.initiator, s.source).Return(true, nil)

		got, err := s.service.GetRequest(s.ctxAs(s.initiator, s.source), req.ID)
		s.Require().NoError(err)
		s.Equal(req.ID, got.ID)
	})

	s.Run("outsiders are forbidden", func() {
		req := s.seedPendingRequest(s.seedRecords(s.source, models.DataTypeResident, 1))
		outsider := id.NewUserID()
		s.directory.EXPECT().IsMember(gomock.Any(), outsider, s.source).Return(false, nil)
		s.directory.EXPECT().IsMember(gomock.Any(), outsider, s.destination).Return(false, nil)

		_, err := s.service.GetRequest(s.ctxAs(outsider, id.NewBarangayID()), req.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ServiceSuite) TestListQueues() {
	req := s.seedPendingRequest(s.seedRecords(s.source, models.DataTypeResident, 1))

	incoming, err := s.service.ListIncoming(s.ctxAs(s.reviewer, s.destination))
	s.Require().NoError(err)
	s.Require().Len(incoming, 1)
	s.Equal(req.ID, incoming[0].ID)

	outgoing, err := s.service.ListOutgoing(s.ctxAs(s.initiator, s.source))
	s.Require().NoError(err)
	s.Require().Len(outgoing, 1)
	s.Equal(req.ID, outgoing[0].ID)

	none, err := s.service.ListIncoming(s.ctxAs(s.reviewer, id.NewBarangayID()))
	s.Require().NoError(err)
	s.Empty(none)

	_, err = s.service.ListIncoming(context.Background())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}
