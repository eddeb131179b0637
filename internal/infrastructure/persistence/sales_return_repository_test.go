package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/retailbill/backend/internal/domain/returns"
	"github.com/retailbill/backend/internal/domain/shared"
	"github.com/retailbill/backend/tests/testutil"
)

// newMockSalesReturnRepository creates a GormSalesReturnRepository with a mocked SQL connection
func newMockSalesReturnRepository(t *testing.T) (*GormSalesReturnRepository, sqlmock.Sqlmock, *sql.DB) {
	mdb := testutil.NewMockDB(t)
	return NewGormSalesReturnRepository(mdb.DB), mdb.Mock, mdb.SqlDB
}

func salesReturnRows(returnID, tenantID uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "version", "return_number", "sales_record_id",
		"invoice_number", "customer_id", "customer_name", "status",
		"refund_type", "refund_status", "subtotal", "tax_amount",
		"total_amount", "refund_amount",
	}).AddRow(
		returnID, tenantID, 1, "SR-2026-00042", uuid.New(),
		"INV-1001", uuid.New(), "Test Customer", "DRAFT",
		"CASH", "PENDING", "200.00", "36.00",
		"236.00", "236.00",
	)
}

func TestNewGormSalesReturnRepository(t *testing.T) {
	t.Run("creates repository with valid DB", func(t *testing.T) {
		repo, _, mockDB := newMockSalesReturnRepository(t)
		defer mockDB.Close()

		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestGormSalesReturnRepository_FindByIDForTenant(t *testing.T) {
	t.Run("finds return within tenant", func(t *testing.T) {
		repo, mock, mockDB := newMockSalesReturnRepository(t)
		defer mockDB.Close()

		returnID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "sales_returns" WHERE tenant_id = \$1 AND id = \$2 AND deleted_at IS NULL ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, returnID, 1).
			WillReturnRows(salesReturnRows(returnID, tenantID))
		mock.ExpectQuery(`SELECT \* FROM "sales_return_items" WHERE "sales_return_items"\."return_id" = \$1`).
			WithArgs(returnID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "return_id", "product_id", "product_name", "quantity", "max_quantity", "unit_price"}))

		sr, err := repo.FindByIDForTenant(context.Background(), tenantID, returnID)

		assert.NoError(t, err)
		require.NotNil(t, sr)
		assert.Equal(t, returnID, sr.ID)
		assert.Equal(t, tenantID, sr.TenantID)
		assert.Equal(t, "SR-2026-00042", sr.ReturnNumber)
		assert.Equal(t, returns.ReturnStatusDraft, sr.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing return", func(t *testing.T) {
		repo, mock, mockDB := newMockSalesReturnRepository(t)
		defer mockDB.Close()

		returnID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "sales_returns" WHERE tenant_id = \$1 AND id = \$2 AND deleted_at IS NULL ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, returnID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		sr, err := repo.FindByIDForTenant(context.Background(), tenantID, returnID)

		assert.Error(t, err)
		assert.Nil(t, sr)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSalesReturnRepository_FindByReturnNumber(t *testing.T) {
	t.Run("finds return by number", func(t *testing.T) {
		repo, mock, mockDB := newMockSalesReturnRepository(t)
		defer mockDB.Close()

		returnID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "sales_returns" WHERE tenant_id = \$1 AND return_number = \$2 AND deleted_at IS NULL ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, "SR-2026-00042", 1).
			WillReturnRows(salesReturnRows(returnID, tenantID))
		mock.ExpectQuery(`SELECT \* FROM "sales_return_items" WHERE "sales_return_items"\."return_id" = \$1`).
			WithArgs(returnID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "return_id"}))

		sr, err := repo.FindByReturnNumber(context.Background(), tenantID, "SR-2026-00042")

		assert.NoError(t, err)
		require.NotNil(t, sr)
		assert.Equal(t, "SR-2026-00042", sr.ReturnNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSalesReturnRepository_NextReturnSequence(t *testing.T) {
	t.Run("reserves next sequence value", func(t *testing.T) {
		repo, mock, mockDB := newMockSalesReturnRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`INSERT INTO return_sequences .* ON CONFLICT .* RETURNING last_value`).
			WithArgs(tenantID, 2026).
			WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(7))

		seq, err := repo.NextReturnSequence(context.Background(), tenantID, 2026)

		assert.NoError(t, err)
		assert.Equal(t, int64(7), seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSalesReturnRepository_CountByStatus(t *testing.T) {
	t.Run("returns counts grouped by status", func(t *testing.T) {
		repo, mock, mockDB := newMockSalesReturnRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"status", "count"}).
			AddRow("DRAFT", 3).
			AddRow("PENDING_APPROVAL", 2).
			AddRow("COMPLETED", 5)

		mock.ExpectQuery(`SELECT status, COUNT\(\*\) as count FROM "sales_returns" WHERE tenant_id = \$1 AND deleted_at IS NULL GROUP BY .*status.*`).
			WithArgs(tenantID).
			WillReturnRows(rows)

		counts, err := repo.CountByStatus(context.Background(), tenantID)

		assert.NoError(t, err)
		assert.Equal(t, int64(3), counts[returns.ReturnStatusDraft])
		assert.Equal(t, int64(2), counts[returns.ReturnStatusPendingApproval])
		assert.Equal(t, int64(5), counts[returns.ReturnStatusCompleted])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSalesReturnRepository_SumRefundsBetween(t *testing.T) {
	t.Run("sums completed refunds by type", func(t *testing.T) {
		repo, mock, mockDB := newMockSalesReturnRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)

		rows := sqlmock.NewRows([]string{"refund_type", "total"}).
			AddRow("CASH", "1520.50").
			AddRow("UPI", "236.00")

		mock.ExpectQuery(`SELECT refund_type, COALESCE\(SUM\(refund_amount\), 0\) as total FROM "sales_returns" WHERE .*refund_status.*GROUP BY .*refund_type.*`).
			WithArgs(tenantID, string(returns.RefundStatusCompleted), from, to).
			WillReturnRows(rows)

		sums, err := repo.SumRefundsBetween(context.Background(), tenantID, from, to)

		assert.NoError(t, err)
		assert.Equal(t, "1520.50", sums[returns.RefundTypeCash])
		assert.Equal(t, "236.00", sums[returns.RefundTypeUPI])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSalesReturnRepository_SaveTransition(t *testing.T) {
	t.Run("rolls back on version conflict", func(t *testing.T) {
		repo, mock, mockDB := newMockSalesReturnRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		sr := newPersistedReturn(t, tenantID)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .?version.? FROM "sales_returns" WHERE id = \$1 FOR UPDATE`).
			WithArgs(sr.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(3))
		mock.ExpectRollback()

		err := repo.SaveTransition(context.Background(), sr, 2, nil, nil)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when side effects fail", func(t *testing.T) {
		repo, mock, mockDB := newMockSalesReturnRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		sr := newPersistedReturn(t, tenantID)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .?version.? FROM "sales_returns" WHERE id = \$1 FOR UPDATE`).
			WithArgs(sr.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
		mock.ExpectRollback()

		err := repo.SaveTransition(context.Background(), sr, 1, nil, func(ctx context.Context) error {
			return assert.AnError
		})

		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("side effects do not run when the version check fails", func(t *testing.T) {
		repo, mock, mockDB := newMockSalesReturnRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		sr := newPersistedReturn(t, tenantID)

		// Another transition already bumped the version. The losing
		// transaction must fail the version check without ever invoking
		// its side effects, or points could be credited twice.
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT .?version.? FROM "sales_returns" WHERE id = \$1 FOR UPDATE`).
			WithArgs(sr.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))
		mock.ExpectRollback()

		sideEffectRan := false
		err := repo.SaveTransition(context.Background(), sr, 1, nil, func(ctx context.Context) error {
			sideEffectRan = true
			return nil
		})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.False(t, sideEffectRan)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSalesReturnRepository_Delete(t *testing.T) {
	t.Run("soft deletes existing return", func(t *testing.T) {
		repo, mock, mockDB := newMockSalesReturnRepository(t)
		defer mockDB.Close()

		returnID := uuid.New()

		mock.ExpectExec(`UPDATE "sales_returns" SET .*deleted_at.* WHERE id = \$\d+ AND deleted_at IS NULL`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(context.Background(), returnID)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound when nothing deleted", func(t *testing.T) {
		repo, mock, mockDB := newMockSalesReturnRepository(t)
		defer mockDB.Close()

		returnID := uuid.New()

		mock.ExpectExec(`UPDATE "sales_returns" SET .*deleted_at.* WHERE id = \$\d+ AND deleted_at IS NULL`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), returnID)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// newPersistedReturn builds a return that looks like it was loaded from
// the database.
func newPersistedReturn(t *testing.T, tenantID uuid.UUID) *returns.SalesReturn {
	t.Helper()
	sr, err := returns.NewSalesReturn(tenantID, "SR-2026-00042", returns.SaleReference{
		SalesRecordID: uuid.New(),
		InvoiceNumber: "INV-1001",
		InvoiceDate:   time.Now(),
	}, uuid.New(), "Test Customer")
	require.NoError(t, err)
	sr.ClearDomainEvents()
	return sr
}
