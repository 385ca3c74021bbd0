package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aerotrip/miles-backoffice/internal/model"
)

// ErrAccountNotFound indicates that a fidelity account was not located
// in the DB.
var ErrAccountNotFound = errors.New("account not found")

// AccountRepo manages persistence for fidelity accounts. An account is
// a titular's enrollment in a program; its balance is never stored but
// derived from the movement log of the resolved ledger account.
type AccountRepo struct {
	db *sql.DB
}

// NewAccountRepo returns a new AccountRepo bound to the given database.
func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

// DB exposes the underlying sql.DB for callers that need to begin
// transactions spanning multiple repositories.
func (r *AccountRepo) DB() *sql.DB { return r.db }

const accountColumns = `id, client_id, managed_account_id, program_id,
	club_periodicity, club_monthly_points, club_fee, club_started_on, club_valid_until, created_at`

func scanAccount(row interface{ Scan(...any) error }) (*model.Account, error) {
	var a model.Account
	var clientID, managedID sql.NullInt64
	var startedOn, validUntil sql.NullTime
	if err := row.Scan(&a.ID, &clientID, &managedID, &a.ProgramID,
		&a.ClubPeriodicity, &a.ClubMonthlyPoints, &a.ClubFee, &startedOn, &validUntil, &a.CreatedAt); err != nil {
		return nil, err
	}
	if clientID.Valid {
		v := uint64(clientID.Int64)
		a.Titular.ClientID = &v
	}
	if managedID.Valid {
		v := uint64(managedID.Int64)
		a.Titular.ManagedAccountID = &v
	}
	if startedOn.Valid {
		t := startedOn.Time
		a.ClubStartedOn = &t
	}
	if validUntil.Valid {
		t := validUntil.Time
		a.ClubValidUntil = &t
	}
	return &a, nil
}

// Create inserts a new account after validating the exactly-one-titular
// invariant.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	if err := a.Titular.Validate(); err != nil {
		return err
	}
	const q = `INSERT INTO accounts (client_id, managed_account_id, program_id,
		club_periodicity, club_monthly_points, club_fee, club_started_on, club_valid_until)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		nullableID(a.Titular.ClientID), nullableID(a.Titular.ManagedAccountID), a.ProgramID,
		a.ClubPeriodicity, a.ClubMonthlyPoints, a.ClubFee, nullableTime(a.ClubStartedOn), nullableTime(a.ClubValidUntil))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// UpdateClub rewrites the club-subscription metadata. These fields are
// advisory and never enter balance math, so no ledger locking applies.
func (r *AccountRepo) UpdateClub(ctx context.Context, a *model.Account) error {
	const q = `UPDATE accounts SET club_periodicity = ?, club_monthly_points = ?, club_fee = ?,
		club_started_on = ?, club_valid_until = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q,
		a.ClubPeriodicity, a.ClubMonthlyPoints, a.ClubFee,
		nullableTime(a.ClubStartedOn), nullableTime(a.ClubValidUntil), a.ID)
	return err
}

// GetByID returns one account or ErrAccountNotFound.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (*model.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	return a, err
}

// GetByIDTx is GetByID inside a caller-managed transaction.
func (r *AccountRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Account, error) {
	a, err := scanAccount(tx.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	return a, err
}

// LockTx locks an account row for the duration of the transaction and
// returns it. Every ledger write path locks the resolved account(s)
// first so concurrent writers serialize on the row; callers locking two
// accounts must lock them in ascending ID order to avoid deadlock.
func (r *AccountRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Account, error) {
	a, err := scanAccount(tx.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ? FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	return a, err
}

// FindByTitularAndProgram returns the account of the given titular on
// the given program, or ErrAccountNotFound. The balance resolver uses
// it to locate the base-program sibling of a linked account.
func (r *AccountRepo) FindByTitularAndProgram(ctx context.Context, t model.Titular, programID uint64) (*model.Account, error) {
	q, args := titularProgramQuery(t, programID)
	a, err := scanAccount(r.db.QueryRowContext(ctx, q, args...))
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	return a, err
}

// FindByTitularAndProgramTx is FindByTitularAndProgram inside a
// caller-managed transaction, used on validation-before-write paths.
func (r *AccountRepo) FindByTitularAndProgramTx(ctx context.Context, tx *sql.Tx, t model.Titular, programID uint64) (*model.Account, error) {
	q, args := titularProgramQuery(t, programID)
	a, err := scanAccount(tx.QueryRowContext(ctx, q, args...))
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	return a, err
}

func titularProgramQuery(t model.Titular, programID uint64) (string, []any) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE program_id = ? AND `
	args := []any{programID}
	if t.IsClient() {
		q += `client_id = ?`
		args = append(args, *t.ClientID)
	} else {
		q += `managed_account_id = ?`
		args = append(args, *t.ManagedAccountID)
	}
	return q + ` LIMIT 1`, args
}

// ListByTitular returns all accounts owned by a titular, ordered by
// creation. Dashboards iterate these to aggregate per-program balances.
func (r *AccountRepo) ListByTitular(ctx context.Context, t model.Titular) ([]model.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE `
	var args []any
	if t.IsClient() {
		q += `client_id = ?`
		args = append(args, *t.ClientID)
	} else {
		q += `managed_account_id = ?`
		args = append(args, *t.ManagedAccountID)
	}
	rows, err := r.db.QueryContext(ctx, q+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// List returns every account, ordered by id.
func (r *AccountRepo) List(ctx context.Context) ([]model.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Delete removes an account. ErrConflict is returned while movements
// still reference it; the ledger is append-only and must be emptied by
// an authorized operator first.
func (r *AccountRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movements WHERE account_id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
