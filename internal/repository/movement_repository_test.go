package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/aerotrip/miles-backoffice/internal/model"
)

func beginMovementTx(t *testing.T) (*MovementRepo, sqlmock.Sqlmock, *sql.Tx) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)
	return NewMovementRepo(db), mock, tx
}

func projectedMovement(redemptionID uint64, points int64, amount string) *model.Movement {
	return &model.Movement{
		AccountID:    10,
		RedemptionID: &redemptionID,
		Date:         time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Points:       points,
		AmountPaid:   decimal.RequireFromString(amount),
		Description:  "Emissão #1 - uso de pontos",
	}
}

func TestUpsertByRedemptionAppendsWhenAbsent(t *testing.T) {
	repo, mock, tx := beginMovementTx(t)
	m := projectedMovement(1, -20000, "-610.00")

	mock.ExpectExec("UPDATE movements SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM movements WHERE redemption_id")).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(0))
	mock.ExpectExec("INSERT INTO movements").
		WillReturnResult(sqlmock.NewResult(7, 1))

	require.NoError(t, repo.UpsertByRedemptionTx(context.Background(), tx, m))
	require.Equal(t, uint64(7), m.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertByRedemptionReplacesExistingRow(t *testing.T) {
	repo, mock, tx := beginMovementTx(t)
	m := projectedMovement(1, -15000, "-457.50")

	mock.ExpectExec("UPDATE movements SET").
		WithArgs(m.AccountID, m.Date, m.Points, m.AmountPaid, m.Description, uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpsertByRedemptionTx(context.Background(), tx, m))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertByRedemptionIdenticalSaveDoesNotDuplicate(t *testing.T) {
	// MySQL reports zero affected rows when an UPDATE writes identical
	// values; the count check on redemption_id must prevent a second insert.
	repo, mock, tx := beginMovementTx(t)
	m := projectedMovement(1, -20000, "-610.00")

	mock.ExpectExec("UPDATE movements SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM movements WHERE redemption_id")).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(1))

	require.NoError(t, repo.UpsertByRedemptionTx(context.Background(), tx, m))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertByRedemptionZeroRetractsProjection(t *testing.T) {
	repo, mock, tx := beginMovementTx(t)
	m := projectedMovement(1, 0, "0")

	mock.ExpectExec("DELETE FROM movements WHERE redemption_id").
		WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpsertByRedemptionTx(context.Background(), tx, m))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertByRedemptionRequiresKey(t *testing.T) {
	repo, mock, tx := beginMovementTx(t)
	m := projectedMovement(1, -100, "-3.05")
	m.RedemptionID = nil

	require.Error(t, repo.UpsertByRedemptionTx(context.Background(), tx, m))
	require.NoError(t, mock.ExpectationsWereMet())
}
