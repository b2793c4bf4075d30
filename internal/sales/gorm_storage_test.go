package sales

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ventasColumns = []string{"id", "fecha", "cliente", "familia", "especie", "cantidad", "precio", "total_venta", "notas"}

func newMockGormStorage(t *testing.T) (*GormStorage, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewGormStorage(db, zaptest.NewLogger(t)), mock
}

func TestGormStorage_SaveCommits(t *testing.T) {
	st, mock := newMockGormStorage(t)

	family := "Psittacidae"
	sale := &Sale{
		Date:      mustDate(t, "2024-03-01"),
		Client:    "Juan",
		Family:    &family,
		Species:   "Amazona aestiva",
		Quantity:  2,
		UnitPrice: 100,
		Total:     999.99,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "ventas"`).
		WithArgs(sqlmock.AnyArg(), "Juan", "Psittacidae", "Amazona aestiva", 2.0, 100.0, 999.99, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	require.NoError(t, st.Save(context.Background(), sale))
	assert.Equal(t, int64(7), sale.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStorage_SaveRollsBackOnError(t *testing.T) {
	st, mock := newMockGormStorage(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "ventas"`).
		WillReturnError(&pgconn.PgError{Code: notNullViolation, Message: `null value in column "cliente"`})
	mock.ExpectRollback()

	sale := &Sale{Date: mustDate(t, "2024-03-01"), Species: "x"}
	err := st.Save(context.Background(), sale)
	require.Error(t, err)

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, notNullViolation, pgErr.Code)
	assert.Zero(t, sale.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStorage_SaveNil(t *testing.T) {
	st, mock := newMockGormStorage(t)

	assert.ErrorIs(t, st.Save(context.Background(), nil), ErrNilSale)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStorage_GetAllOrdersByDateThenID(t *testing.T) {
	st, mock := newMockGormStorage(t)

	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(ventasColumns).
		AddRow(int64(3), march, "c", nil, "s", 1.0, 2.0, 2.0, "nota").
		AddRow(int64(2), march, "b", "fam", "s", 1.0, 2.0, 2.0, nil).
		AddRow(int64(1), jan, "a", nil, "s", 1.0, 2.0, 2.0, nil)

	mock.ExpectQuery(`SELECT \* FROM "ventas" ORDER BY fecha DESC,\s*id DESC`).WillReturnRows(rows)

	all, err := st.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, int64(3), all[0].ID)
	assert.Equal(t, int64(2), all[1].ID)
	assert.Equal(t, int64(1), all[2].ID)
	require.NotNil(t, all[0].Notes)
	assert.Equal(t, "nota", *all[0].Notes)
	require.NotNil(t, all[1].Family)
	assert.Equal(t, "fam", *all[1].Family)
	assert.Nil(t, all[2].Family)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStorage_GetAllError(t *testing.T) {
	st, mock := newMockGormStorage(t)

	dbErr := errors.New("connection refused")
	mock.ExpectQuery(`SELECT \* FROM "ventas"`).WillReturnError(dbErr)

	all, err := st.GetAll(context.Background())
	assert.Nil(t, all)
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLState(t *testing.T) {
	assert.Equal(t, "23502", sqlState(&pgconn.PgError{Code: "23502"}))
	assert.Equal(t, "", sqlState(errors.New("plain")))
}

func TestGormStorage_MigrateCreatesTable(t *testing.T) {
	st, mock := newMockGormStorage(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM information_schema.tables`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`CREATE TABLE "ventas"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStorage_MigrateError(t *testing.T) {
	st, mock := newMockGormStorage(t)

	dbErr := errors.New("permission denied for schema public")
	mock.ExpectQuery(`SELECT count\(\*\) FROM information_schema.tables`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`CREATE TABLE "ventas"`).WillReturnError(dbErr)

	err := st.Migrate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "migrate ventas:")
	assert.NoError(t, mock.ExpectationsWereMet())
}
