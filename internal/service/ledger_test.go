package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/aerotrip/miles-backoffice/internal/ledger"
	"github.com/aerotrip/miles-backoffice/internal/model"
	"github.com/aerotrip/miles-backoffice/internal/repository"
)

var (
	accountCols  = []string{"id", "client_id", "managed_account_id", "program_id", "club_periodicity", "club_monthly_points", "club_fee", "club_started_on", "club_valid_until", "created_at"}
	programCols  = []string{"id", "name", "kind", "base_program_id", "average_mile_price", "cpf_limit"}
	movementCols = []string{"id", "account_id", "redemption_id", "movement_date", "points", "amount_paid", "description"}
)

func newLedgerServiceMock(t *testing.T) (*LedgerService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	svc := NewLedgerService(
		repository.NewAccountRepo(db),
		repository.NewProgramRepo(db),
		repository.NewMovementRepo(db),
	)
	return svc, mock
}

func accountRow(id, clientID, programID uint64) *sqlmock.Rows {
	return sqlmock.NewRows(accountCols).
		AddRow(id, clientID, nil, programID, model.ClubNone, 0, "0", nil, nil, time.Now())
}

func principalProgramRow(id uint64, price string) *sqlmock.Rows {
	return sqlmock.NewRows(programCols).AddRow(id, "LATAM Pass", model.ProgramPrincipal, nil, price, nil)
}

func linkedProgramRow(id, baseID uint64, price string) *sqlmock.Rows {
	return sqlmock.NewRows(programCols).AddRow(id, "LATAM Pass Viagens", model.ProgramLinked, baseID, price, nil)
}

func TestResolveLedgerAccountPrincipalIsItself(t *testing.T) {
	svc, mock := newLedgerServiceMock(t)
	mock.ExpectQuery("FROM programs WHERE id").
		WithArgs(uint64(4)).
		WillReturnRows(principalProgramRow(4, "30.00"))

	acct := &model.Account{ID: 2, Titular: model.ClientTitular(3), ProgramID: 4}
	got, err := svc.ResolveLedgerAccount(context.Background(), acct)
	require.NoError(t, err)
	require.Same(t, acct, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveLedgerAccountLinkedFindsBaseSibling(t *testing.T) {
	svc, mock := newLedgerServiceMock(t)
	mock.ExpectQuery("FROM programs WHERE id").
		WithArgs(uint64(5)).
		WillReturnRows(linkedProgramRow(5, 4, "26.00"))
	mock.ExpectQuery("FROM accounts WHERE program_id").
		WithArgs(uint64(4), uint64(3)).
		WillReturnRows(accountRow(10, 3, 4))

	acct := &model.Account{ID: 2, Titular: model.ClientTitular(3), ProgramID: 5}
	got, err := svc.ResolveLedgerAccount(context.Background(), acct)
	require.NoError(t, err)
	require.Equal(t, uint64(10), got.ID)
	require.Equal(t, uint64(4), got.ProgramID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveLedgerAccountLinkedWithoutBaseSibling(t *testing.T) {
	svc, mock := newLedgerServiceMock(t)
	mock.ExpectQuery("FROM programs WHERE id").
		WithArgs(uint64(5)).
		WillReturnRows(linkedProgramRow(5, 4, "26.00"))
	mock.ExpectQuery("FROM accounts WHERE program_id").
		WithArgs(uint64(4), uint64(3)).
		WillReturnRows(sqlmock.NewRows(accountCols))

	acct := &model.Account{ID: 2, Titular: model.ClientTitular(3), ProgramID: 5}
	_, err := svc.ResolveLedgerAccount(context.Background(), acct)
	require.ErrorIs(t, err, ledger.ErrLinkedAccountMissing)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBalanceReadsThroughLinkedLedger(t *testing.T) {
	svc, mock := newLedgerServiceMock(t)
	when := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM accounts WHERE id").
		WithArgs(uint64(2)).
		WillReturnRows(accountRow(2, 3, 5))
	mock.ExpectQuery("FROM programs WHERE id").
		WithArgs(uint64(5)).
		WillReturnRows(linkedProgramRow(5, 4, "26.00"))
	mock.ExpectQuery("FROM accounts WHERE program_id").
		WithArgs(uint64(4), uint64(3)).
		WillReturnRows(accountRow(10, 3, 4))
	mock.ExpectQuery("FROM movements WHERE account_id").
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows(movementCols).
			AddRow(1, 10, nil, when, 10000, "305.00", "Compra de pontos").
			AddRow(2, 10, nil, when, 5000, "100.00", "Compra de pontos"))

	summary, err := svc.GetBalance(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, int64(15000), summary.Points)
	require.True(t, summary.TotalPaid.Equal(decimal.RequireFromString("405.00")))
	require.True(t, summary.AvgCostPerThousand.Equal(decimal.RequireFromString("27")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMarketValueUsesLinkedProgramOwnPrice(t *testing.T) {
	// The balance is the base program's but the valuation price is the
	// linked program's: shared quantity, independent price.
	svc, mock := newLedgerServiceMock(t)
	when := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM accounts WHERE id").
		WithArgs(uint64(2)).
		WillReturnRows(accountRow(2, 3, 5))
	mock.ExpectQuery("FROM programs WHERE id").
		WithArgs(uint64(5)).
		WillReturnRows(linkedProgramRow(5, 4, "26.00"))
	mock.ExpectQuery("FROM programs WHERE id").
		WithArgs(uint64(5)).
		WillReturnRows(linkedProgramRow(5, 4, "26.00"))
	mock.ExpectQuery("FROM accounts WHERE program_id").
		WithArgs(uint64(4), uint64(3)).
		WillReturnRows(accountRow(10, 3, 4))
	mock.ExpectQuery("FROM movements WHERE account_id").
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows(movementCols).
			AddRow(1, 10, nil, when, 12000, "360.00", "Compra de pontos"))

	value, err := svc.GetMarketValueEstimate(context.Background(), 2)
	require.NoError(t, err)
	require.True(t, value.Equal(decimal.RequireFromString("312.00")), value.String())
	require.NoError(t, mock.ExpectationsWereMet())
}
