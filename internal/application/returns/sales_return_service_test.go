package returns

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/retailbill/backend/internal/domain/returns"
	"github.com/retailbill/backend/internal/domain/shared"
)

// MockSalesReturnRepository is a mock implementation of SalesReturnRepository
type MockSalesReturnRepository struct {
	mock.Mock
}

func (m *MockSalesReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*returns.SalesReturn, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returns.SalesReturn), args.Error(1)
}

func (m *MockSalesReturnRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*returns.SalesReturn, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returns.SalesReturn), args.Error(1)
}

func (m *MockSalesReturnRepository) FindAll(ctx context.Context, filter shared.Filter) ([]returns.SalesReturn, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]returns.SalesReturn), args.Error(1)
}

func (m *MockSalesReturnRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]returns.SalesReturn, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]returns.SalesReturn), args.Error(1)
}

func (m *MockSalesReturnRepository) FindByReturnNumber(ctx context.Context, tenantID uuid.UUID, returnNumber string) (*returns.SalesReturn, error) {
	args := m.Called(ctx, tenantID, returnNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returns.SalesReturn), args.Error(1)
}

func (m *MockSalesReturnRepository) FindBySalesRecord(ctx context.Context, tenantID, salesRecordID uuid.UUID) ([]returns.SalesReturn, error) {
	args := m.Called(ctx, tenantID, salesRecordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]returns.SalesReturn), args.Error(1)
}

func (m *MockSalesReturnRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status returns.ReturnStatus, filter shared.Filter) ([]returns.SalesReturn, error) {
	args := m.Called(ctx, tenantID, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]returns.SalesReturn), args.Error(1)
}

func (m *MockSalesReturnRepository) Save(ctx context.Context, sr *returns.SalesReturn) error {
	args := m.Called(ctx, sr)
	return args.Error(0)
}

func (m *MockSalesReturnRepository) SaveWithLock(ctx context.Context, sr *returns.SalesReturn, expectedVersion int) error {
	args := m.Called(ctx, sr, expectedVersion)
	return args.Error(0)
}

// SaveTransition runs the side effects the way the real repository
// does inside its transaction: a side effect error aborts the save.
func (m *MockSalesReturnRepository) SaveTransition(ctx context.Context, sr *returns.SalesReturn, expectedVersion int, audit *returns.ReturnApproval, sideEffects func(ctx context.Context) error) error {
	args := m.Called(ctx, sr, expectedVersion, audit, sideEffects)
	if sideEffects != nil {
		if err := sideEffects(ctx); err != nil {
			return err
		}
	}
	return args.Error(0)
}

func (m *MockSalesReturnRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSalesReturnRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSalesReturnRepository) NextReturnSequence(ctx context.Context, tenantID uuid.UUID, year int) (int64, error) {
	args := m.Called(ctx, tenantID, year)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSalesReturnRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[returns.ReturnStatus]int64, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[returns.ReturnStatus]int64), args.Error(1)
}

func (m *MockSalesReturnRepository) SumRefundsBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (map[returns.RefundType]string, error) {
	args := m.Called(ctx, tenantID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[returns.RefundType]string), args.Error(1)
}

// MockReturnApprovalRepository is a mock implementation of ReturnApprovalRepository
type MockReturnApprovalRepository struct {
	mock.Mock
}

func (m *MockReturnApprovalRepository) Save(ctx context.Context, approval *returns.ReturnApproval) error {
	args := m.Called(ctx, approval)
	return args.Error(0)
}

func (m *MockReturnApprovalRepository) FindByReturnID(ctx context.Context, tenantID, returnID uuid.UUID) ([]returns.ReturnApproval, error) {
	args := m.Called(ctx, tenantID, returnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]returns.ReturnApproval), args.Error(1)
}

func (m *MockReturnApprovalRepository) FindByActor(ctx context.Context, tenantID, actorID uuid.UUID, filter shared.Filter) ([]returns.ReturnApproval, error) {
	args := m.Called(ctx, tenantID, actorID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]returns.ReturnApproval), args.Error(1)
}

// MockPermissionChecker is a mock implementation of PermissionChecker
type MockPermissionChecker struct {
	mock.Mock
}

func (m *MockPermissionChecker) CanTransition(ctx context.Context, tenantID, actorID uuid.UUID, action returns.ApprovalAction) (bool, error) {
	args := m.Called(ctx, tenantID, actorID, action)
	return args.Bool(0), args.Error(1)
}

// MockPointsLedger is a mock implementation of PointsLedger
type MockPointsLedger struct {
	mock.Mock
}

func (m *MockPointsLedger) CreditPoints(ctx context.Context, tenantID, customerID uuid.UUID, points int64, reference string) error {
	args := m.Called(ctx, tenantID, customerID, points, reference)
	return args.Error(0)
}

// MockStockRestocker is a mock implementation of StockRestocker
type MockStockRestocker struct {
	mock.Mock
}

func (m *MockStockRestocker) Restock(ctx context.Context, tenantID, warehouseID uuid.UUID, returnNumber string, lines []returns.RestockLine) error {
	args := m.Called(ctx, tenantID, warehouseID, returnNumber, lines)
	return args.Error(0)
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func testCreateRequest() CreateSalesReturnRequest {
	return CreateSalesReturnRequest{
		SalesRecordID: uuid.New(),
		InvoiceNumber: "INV-2026-00512",
		InvoiceDate:   time.Now().AddDate(0, 0, -2),
		CustomerID:    uuid.New(),
		CustomerName:  "Mehta Stores",
		Reason:        "damaged in transit",
		Items: []CreateSalesReturnItemInput{
			{
				ProductID:     uuid.New(),
				ProductName:   "Atorvastatin 10mg",
				ProductCode:   "ATV10",
				Quantity:      decimal.NewFromInt(2),
				MaxQuantity:   decimal.NewFromInt(4),
				UnitPrice:     decimal.NewFromInt(150),
				TaxPercentage: decimal.NewFromInt(12),
			},
		},
	}
}

// pendingReturn builds a submitted return ready for a decision
func pendingReturn(t *testing.T, tenantID uuid.UUID, refundType returns.RefundType) *returns.SalesReturn {
	t.Helper()
	sr, err := returns.NewSalesReturn(tenantID, "SR-2026-00009", returns.SaleReference{
		SalesRecordID: uuid.New(),
		InvoiceNumber: "INV-2026-00512",
		InvoiceDate:   time.Now().AddDate(0, 0, -2),
	}, uuid.New(), "Mehta Stores")
	require.NoError(t, err)

	_, err = sr.AddItem(returns.NewItemParams{
		ProductID:     uuid.New(),
		ProductName:   "Atorvastatin 10mg",
		Quantity:      decimal.NewFromInt(2),
		MaxQuantity:   decimal.NewFromInt(4),
		UnitPrice:     decimal.RequireFromString("150.40"),
		TaxPercentage: decimal.Zero,
	})
	require.NoError(t, err)
	sr.SetReason("damaged in transit")
	require.NoError(t, sr.SetRefundType(refundType))

	_, err = sr.Submit(uuid.New(), "Priya", "")
	require.NoError(t, err)
	sr.ClearDomainEvents()
	return sr
}

func newTestService(repo *MockSalesReturnRepository, approvals *MockReturnApprovalRepository, perms returns.PermissionChecker, settlement *RefundSettlementEngine) *SalesReturnService {
	return NewSalesReturnService(repo, approvals, perms, settlement, nil)
}

func TestSalesReturnServiceCreate(t *testing.T) {
	t.Run("creates draft with generated number", func(t *testing.T) {
		repo := new(MockSalesReturnRepository)
		tenantID := uuid.New()
		year := time.Now().Year()

		repo.On("NextReturnSequence", mock.Anything, tenantID, year).Return(int64(7), nil)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*returns.SalesReturn")).Return(nil)

		svc := newTestService(repo, new(MockReturnApprovalRepository), nil, nil)
		resp, err := svc.Create(context.Background(), tenantID, testCreateRequest())

		require.NoError(t, err)
		assert.Equal(t, returns.FormatReturnNumber(year, 7), resp.ReturnNumber)
		assert.Equal(t, "DRAFT", resp.Status)
		assert.Equal(t, 1, resp.ItemCount)
		// 2 x 150 plus 12% GST on top
		assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(336)), "total %s", resp.TotalAmount)
		repo.AssertExpectations(t)
	})

	t.Run("rejects over-quantity item", func(t *testing.T) {
		repo := new(MockSalesReturnRepository)
		tenantID := uuid.New()
		repo.On("NextReturnSequence", mock.Anything, tenantID, mock.Anything).Return(int64(8), nil)

		req := testCreateRequest()
		req.Items[0].Quantity = decimal.NewFromInt(10)

		svc := newTestService(repo, new(MockReturnApprovalRepository), nil, nil)
		_, err := svc.Create(context.Background(), tenantID, req)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "QUANTITY_EXCEEDED", domainErr.Code)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestSalesReturnServiceSubmit(t *testing.T) {
	repo := new(MockSalesReturnRepository)
	tenantID := uuid.New()

	sr, err := returns.NewSalesReturn(tenantID, "SR-2026-00010", returns.SaleReference{
		SalesRecordID: uuid.New(),
		InvoiceNumber: "INV-1",
		InvoiceDate:   time.Now(),
	}, uuid.New(), "x")
	require.NoError(t, err)
	_, err = sr.AddItem(returns.NewItemParams{
		ProductID:   uuid.New(),
		ProductName: "p",
		Quantity:    decimal.NewFromInt(1),
		MaxQuantity: decimal.NewFromInt(1),
		UnitPrice:   decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	sr.SetReason("expired")

	repo.On("FindByIDForTenant", mock.Anything, tenantID, sr.ID).Return(sr, nil)
	repo.On("SaveTransition", mock.Anything, sr, 1,
		mock.MatchedBy(func(a *returns.ReturnApproval) bool {
			return a.Action == returns.ApprovalActionSubmit && a.NewStatus == returns.ReturnStatusPendingApproval
		}), mock.Anything).Return(nil)

	svc := newTestService(repo, new(MockReturnApprovalRepository), nil, nil)
	resp, err := svc.Submit(context.Background(), tenantID, sr.ID, Actor{ID: uuid.New(), Name: "Priya"}, SubmitReturnRequest{})

	require.NoError(t, err)
	assert.Equal(t, "PENDING_APPROVAL", resp.Status)
	repo.AssertExpectations(t)
}

func TestSalesReturnServiceApprove(t *testing.T) {
	t.Run("points refund credits floored points in transaction", func(t *testing.T) {
		repo := new(MockSalesReturnRepository)
		ledger := new(MockPointsLedger)
		idem := new(MockIdempotencyStore)
		tenantID := uuid.New()

		sr := pendingReturn(t, tenantID, returns.RefundTypePoints)

		repo.On("FindByIDForTenant", mock.Anything, tenantID, sr.ID).Return(sr, nil)
		repo.On("SaveTransition", mock.Anything, sr, 1, mock.Anything, mock.Anything).Return(nil)
		idem.On("IsProcessed", mock.Anything, mock.Anything).Return(false, nil)
		idem.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		// 2 x 150.40 = 300.80 floors to 300 points
		ledger.On("CreditPoints", mock.Anything, tenantID, sr.CustomerID, int64(300), sr.ReturnNumber).Return(nil)

		engine := NewRefundSettlementEngine(ledger, nil, idem, shared.DefaultIdempotencyConfig(), nil)
		svc := newTestService(repo, new(MockReturnApprovalRepository), nil, engine)

		resp, err := svc.Approve(context.Background(), tenantID, sr.ID, Actor{ID: uuid.New(), Name: "Ravi"}, ApproveReturnRequest{Note: "ok"})

		require.NoError(t, err)
		assert.Equal(t, "APPROVED", resp.Status)
		assert.Equal(t, "COMPLETED", resp.RefundStatus)
		assert.Equal(t, int64(300), resp.PointsIssued)
		ledger.AssertExpectations(t)
	})

	t.Run("points credit failure aborts approval", func(t *testing.T) {
		repo := new(MockSalesReturnRepository)
		ledger := new(MockPointsLedger)
		idem := new(MockIdempotencyStore)
		tenantID := uuid.New()

		sr := pendingReturn(t, tenantID, returns.RefundTypePoints)

		repo.On("FindByIDForTenant", mock.Anything, tenantID, sr.ID).Return(sr, nil)
		repo.On("SaveTransition", mock.Anything, sr, 1, mock.Anything, mock.Anything).Return(nil)
		idem.On("IsProcessed", mock.Anything, mock.Anything).Return(false, nil)
		ledger.On("CreditPoints", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("ledger unavailable"))

		engine := NewRefundSettlementEngine(ledger, nil, idem, shared.DefaultIdempotencyConfig(), nil)
		svc := newTestService(repo, new(MockReturnApprovalRepository), nil, engine)

		_, err := svc.Approve(context.Background(), tenantID, sr.ID, Actor{ID: uuid.New(), Name: "Ravi"}, ApproveReturnRequest{})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "SETTLEMENT_FAILED", domainErr.Code)
		assert.True(t, domainErr.Retryable)
		idem.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("replayed points credit is skipped", func(t *testing.T) {
		repo := new(MockSalesReturnRepository)
		ledger := new(MockPointsLedger)
		idem := new(MockIdempotencyStore)
		tenantID := uuid.New()

		sr := pendingReturn(t, tenantID, returns.RefundTypePoints)

		repo.On("FindByIDForTenant", mock.Anything, tenantID, sr.ID).Return(sr, nil)
		repo.On("SaveTransition", mock.Anything, sr, 1, mock.Anything, mock.Anything).Return(nil)
		idem.On("IsProcessed", mock.Anything, mock.Anything).Return(true, nil)

		engine := NewRefundSettlementEngine(ledger, nil, idem, shared.DefaultIdempotencyConfig(), nil)
		svc := newTestService(repo, new(MockReturnApprovalRepository), nil, engine)

		resp, err := svc.Approve(context.Background(), tenantID, sr.ID, Actor{ID: uuid.New(), Name: "Ravi"}, ApproveReturnRequest{})

		require.NoError(t, err)
		assert.Equal(t, "APPROVED", resp.Status)
		ledger.AssertNotCalled(t, "CreditPoints", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cash refund restocks good items", func(t *testing.T) {
		repo := new(MockSalesReturnRepository)
		restocker := new(MockStockRestocker)
		idem := new(MockIdempotencyStore)
		tenantID := uuid.New()
		warehouseID := uuid.New()

		sr := pendingReturn(t, tenantID, returns.RefundTypeCash)
		require.NoError(t, sr.SetWarehouse(warehouseID))

		repo.On("FindByIDForTenant", mock.Anything, tenantID, sr.ID).Return(sr, nil)
		repo.On("SaveTransition", mock.Anything, sr, 1, mock.Anything, mock.Anything).Return(nil)
		idem.On("IsProcessed", mock.Anything, mock.Anything).Return(false, nil)
		idem.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		restocker.On("Restock", mock.Anything, tenantID, warehouseID, sr.ReturnNumber,
			mock.MatchedBy(func(lines []returns.RestockLine) bool { return len(lines) == 1 })).Return(nil)

		engine := NewRefundSettlementEngine(nil, restocker, idem, shared.DefaultIdempotencyConfig(), nil)
		svc := newTestService(repo, new(MockReturnApprovalRepository), nil, engine)

		resp, err := svc.Approve(context.Background(), tenantID, sr.ID, Actor{ID: uuid.New(), Name: "Ravi"}, ApproveReturnRequest{})

		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", resp.RefundStatus)
		assert.True(t, resp.StockReturned)
		assert.Equal(t, "REQUESTED", resp.Items[0].RestockStatus)
		restocker.AssertExpectations(t)
	})

	t.Run("repeated approval replays the settled state", func(t *testing.T) {
		repo := new(MockSalesReturnRepository)
		ledger := new(MockPointsLedger)
		idem := new(MockIdempotencyStore)
		tenantID := uuid.New()

		sr := pendingReturn(t, tenantID, returns.RefundTypePoints)
		_, err := sr.Approve(uuid.New(), "Ravi", "ok")
		require.NoError(t, err)
		_, err = sr.SettlePointsRefund()
		require.NoError(t, err)
		sr.ClearDomainEvents()

		repo.On("FindByIDForTenant", mock.Anything, tenantID, sr.ID).Return(sr, nil)

		engine := NewRefundSettlementEngine(ledger, nil, idem, shared.DefaultIdempotencyConfig(), nil)
		svc := newTestService(repo, new(MockReturnApprovalRepository), nil, engine)

		resp, err := svc.Approve(context.Background(), tenantID, sr.ID, Actor{ID: uuid.New(), Name: "Ravi"}, ApproveReturnRequest{})

		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, "APPROVED", resp.Status)
		ledger.AssertNotCalled(t, "CreditPoints", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "SaveTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("forbidden without permission", func(t *testing.T) {
		repo := new(MockSalesReturnRepository)
		perms := new(MockPermissionChecker)
		tenantID := uuid.New()
		actor := Actor{ID: uuid.New(), Name: "Ravi"}

		perms.On("CanTransition", mock.Anything, tenantID, actor.ID, returns.ApprovalActionApprove).Return(false, nil)

		svc := newTestService(repo, new(MockReturnApprovalRepository), perms, nil)
		_, err := svc.Approve(context.Background(), tenantID, uuid.New(), actor, ApproveReturnRequest{})

		assert.ErrorIs(t, err, shared.ErrForbidden)
		repo.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("approve from draft is a state conflict", func(t *testing.T) {
		repo := new(MockSalesReturnRepository)
		tenantID := uuid.New()

		sr, err := returns.NewSalesReturn(tenantID, "SR-2026-00011", returns.SaleReference{
			SalesRecordID: uuid.New(),
			InvoiceNumber: "INV-2",
			InvoiceDate:   time.Now(),
		}, uuid.New(), "x")
		require.NoError(t, err)

		repo.On("FindByIDForTenant", mock.Anything, tenantID, sr.ID).Return(sr, nil)

		svc := newTestService(repo, new(MockReturnApprovalRepository), nil, nil)
		_, err = svc.Approve(context.Background(), tenantID, sr.ID, Actor{ID: uuid.New()}, ApproveReturnRequest{})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "STATE_CONFLICT", domainErr.Code)
		repo.AssertNotCalled(t, "SaveTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSalesReturnServiceRejectAndCancel(t *testing.T) {
	t.Run("reject records audit", func(t *testing.T) {
		repo := new(MockSalesReturnRepository)
		tenantID := uuid.New()
		sr := pendingReturn(t, tenantID, returns.RefundTypeCash)

		repo.On("FindByIDForTenant", mock.Anything, tenantID, sr.ID).Return(sr, nil)
		repo.On("SaveTransition", mock.Anything, sr, 1,
			mock.MatchedBy(func(a *returns.ReturnApproval) bool {
				return a.Action == returns.ApprovalActionReject && a.Comments == "stock already sold on"
			}), mock.Anything).Return(nil)

		svc := newTestService(repo, new(MockReturnApprovalRepository), nil, nil)
		resp, err := svc.Reject(context.Background(), tenantID, sr.ID, Actor{ID: uuid.New(), Name: "Ravi"}, RejectReturnRequest{Reason: "stock already sold on"})

		require.NoError(t, err)
		assert.Equal(t, "REJECTED", resp.Status)
	})

	t.Run("concurrency conflict surfaces", func(t *testing.T) {
		repo := new(MockSalesReturnRepository)
		tenantID := uuid.New()
		sr := pendingReturn(t, tenantID, returns.RefundTypeCash)

		repo.On("FindByIDForTenant", mock.Anything, tenantID, sr.ID).Return(sr, nil)
		repo.On("SaveTransition", mock.Anything, sr, 1, mock.Anything, mock.Anything).
			Return(shared.ErrConcurrencyConflict)

		svc := newTestService(repo, new(MockReturnApprovalRepository), nil, nil)
		_, err := svc.Cancel(context.Background(), tenantID, sr.ID, Actor{ID: uuid.New()}, CancelReturnRequest{Reason: "dup"})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestSalesReturnServiceListApprovals(t *testing.T) {
	repo := new(MockSalesReturnRepository)
	approvals := new(MockReturnApprovalRepository)
	tenantID := uuid.New()
	sr := pendingReturn(t, tenantID, returns.RefundTypeCash)

	records := []returns.ReturnApproval{
		{ID: uuid.New(), ReturnID: sr.ID, Action: returns.ApprovalActionSubmit, PreviousStatus: returns.ReturnStatusDraft, NewStatus: returns.ReturnStatusPendingApproval},
	}

	repo.On("FindByIDForTenant", mock.Anything, tenantID, sr.ID).Return(sr, nil)
	approvals.On("FindByReturnID", mock.Anything, tenantID, sr.ID).Return(records, nil)

	svc := newTestService(repo, approvals, nil, nil)
	out, err := svc.ListApprovals(context.Background(), tenantID, sr.ID)

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "SUBMIT", out[0].Action)
	assert.Equal(t, "DRAFT", out[0].PreviousStatus)
}

func TestSalesReturnServiceGetStats(t *testing.T) {
	repo := new(MockSalesReturnRepository)
	tenantID := uuid.New()
	from := time.Now().AddDate(0, -1, 0)
	to := time.Now()

	repo.On("CountByStatus", mock.Anything, tenantID).Return(map[returns.ReturnStatus]int64{
		returns.ReturnStatusPendingApproval: 3,
		returns.ReturnStatusCompleted:       12,
	}, nil)
	repo.On("SumRefundsBetween", mock.Anything, tenantID, from, to).Return(map[returns.RefundType]string{
		returns.RefundTypeCash:   "15230.50",
		returns.RefundTypePoints: "1200.00",
	}, nil)

	svc := newTestService(repo, new(MockReturnApprovalRepository), nil, nil)
	stats, err := svc.GetStats(context.Background(), tenantID, from, to)

	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.CountsByStatus["PENDING_APPROVAL"])
	assert.Equal(t, "15230.50", stats.RefundsByType["CASH"])
}
