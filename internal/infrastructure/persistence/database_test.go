package persistence

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/retailbill/backend/tests/testutil"
)

func TestDatabaseClose(t *testing.T) {
	t.Run("closes the underlying connection", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)
		db := &Database{DB: mdb.DB}

		mdb.Mock.ExpectClose()

		require.NoError(t, db.Close())
		mdb.ExpectationsWereMet(t)
	})
}

func TestDatabasePing(t *testing.T) {
	t.Run("reaches the server", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer sqlDB.Close()

		// gorm.Open pings once while establishing the session.
		mock.ExpectPing()

		gdb, err := gorm.Open(postgres.New(postgres.Config{
			Conn:       sqlDB,
			DriverName: "postgres",
		}), &gorm.Config{SkipDefaultTransaction: true})
		require.NoError(t, err)

		db := &Database{DB: gdb}

		mock.ExpectPing()
		assert.NoError(t, db.Ping())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDatabaseStats(t *testing.T) {
	t.Run("reports pool counters", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)
		defer mdb.Close()
		db := &Database{DB: mdb.DB}

		stats, err := db.Stats()
		require.NoError(t, err)

		assert.GreaterOrEqual(t, stats.OpenConnections, 0)
		assert.GreaterOrEqual(t, stats.InUse, 0)
		assert.GreaterOrEqual(t, stats.Idle, 0)
		assert.GreaterOrEqual(t, stats.WaitCount, int64(0))
		assert.GreaterOrEqual(t, stats.WaitDuration, time.Duration(0))
	})

	t.Run("open connections split into in-use and idle", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)
		defer mdb.Close()
		db := &Database{DB: mdb.DB}

		stats, err := db.Stats()
		require.NoError(t, err)
		assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
	})
}

func TestDatabaseQueries(t *testing.T) {
	t.Run("runs parameterised selects", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)
		defer mdb.Close()
		db := &Database{DB: mdb.DB}

		type row struct {
			ID           uint
			ReturnNumber string
		}

		mdb.Mock.ExpectQuery(`SELECT \* FROM "sales_returns" WHERE tenant_id = \$1 ORDER BY created_at DESC LIMIT \$2`).
			WithArgs("tenant-kirana-north", 20).
			WillReturnRows(sqlmock.NewRows([]string{"id", "return_number"}).
				AddRow(1, "SR-20260831-0001").
				AddRow(2, "SR-20260831-0002"))

		var results []row
		err := db.DB.Table("sales_returns").
			Where("tenant_id = ?", "tenant-kirana-north").
			Order("created_at DESC").
			Limit(20).
			Find(&results).Error
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "SR-20260831-0001", results[0].ReturnNumber)

		mdb.ExpectationsWereMet(t)
	})

	t.Run("commits wrapped writes", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)
		defer mdb.Close()
		db := &Database{DB: mdb.DB}

		type approval struct {
			ID     uint
			Action string
		}

		mdb.Mock.ExpectBegin()
		mdb.Mock.ExpectQuery(`INSERT INTO "approvals"`).
			WithArgs("APPROVED").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mdb.Mock.ExpectCommit()

		err := db.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&approval{Action: "APPROVED"}).Error
		})
		require.NoError(t, err)
		mdb.ExpectationsWereMet(t)
	})

	t.Run("rolls back on handler error", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)
		defer mdb.Close()
		db := &Database{DB: mdb.DB}

		mdb.Mock.ExpectBegin()
		mdb.Mock.ExpectRollback()

		err := db.DB.Transaction(func(tx *gorm.DB) error {
			return assert.AnError
		})
		assert.Error(t, err)
		mdb.ExpectationsWereMet(t)
	})
}
