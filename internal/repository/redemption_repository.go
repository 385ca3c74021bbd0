package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aerotrip/miles-backoffice/internal/model"
)

// ErrRedemptionNotFound indicates that a redemption was not located in
// the DB.
var ErrRedemptionNotFound = errors.New("redemption not found")

// RedemptionRepo manages ticket emissions and their passenger lists.
// Saving a redemption is always driven by the redemption service, which
// wraps the CPF-limit check, the passenger replacement and the ledger
// projection in one transaction.
type RedemptionRepo struct {
	db *sql.DB
}

// NewRedemptionRepo returns a new RedemptionRepo bound to the given database.
func NewRedemptionRepo(db *sql.DB) *RedemptionRepo { return &RedemptionRepo{db: db} }

// DB exposes the underlying sql.DB for transaction control.
func (r *RedemptionRepo) DB() *sql.DB { return r.db }

const redemptionColumns = `id, client_id, managed_account_id, program_id,
	points_used, fees, cash_paid, reference_price, departure_date, created_at`

func scanRedemption(row interface{ Scan(...any) error }) (*model.Redemption, error) {
	var e model.Redemption
	var clientID, managedID sql.NullInt64
	var departure sql.NullTime
	if err := row.Scan(&e.ID, &clientID, &managedID, &e.ProgramID,
		&e.PointsUsed, &e.Fees, &e.CashPaid, &e.ReferencePrice, &departure, &e.CreatedAt); err != nil {
		return nil, err
	}
	if clientID.Valid {
		v := uint64(clientID.Int64)
		e.Titular.ClientID = &v
	}
	if managedID.Valid {
		v := uint64(managedID.Int64)
		e.Titular.ManagedAccountID = &v
	}
	if departure.Valid {
		t := departure.Time
		e.DepartureDate = &t
	}
	return &e, nil
}

// CreateTx inserts a new redemption inside a caller-managed transaction
// and populates its generated ID.
func (r *RedemptionRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *model.Redemption) error {
	if err := e.Titular.Validate(); err != nil {
		return err
	}
	const q = `INSERT INTO redemptions (client_id, managed_account_id, program_id,
		points_used, fees, cash_paid, reference_price, departure_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		nullableID(e.Titular.ClientID), nullableID(e.Titular.ManagedAccountID), e.ProgramID,
		e.PointsUsed, e.Fees, e.CashPaid, e.ReferencePrice, nullableTime(e.DepartureDate))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// UpdateTx rewrites a redemption's fields inside a caller-managed
// transaction. The titular and program are fixed at creation; editing
// them would silently re-home the projected movement.
func (r *RedemptionRepo) UpdateTx(ctx context.Context, tx *sql.Tx, e *model.Redemption) error {
	const q = `UPDATE redemptions SET points_used = ?, fees = ?, cash_paid = ?,
		reference_price = ?, departure_date = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, e.PointsUsed, e.Fees, e.CashPaid,
		e.ReferencePrice, nullableTime(e.DepartureDate), e.ID)
	return err
}

// GetByID returns one redemption or ErrRedemptionNotFound.
func (r *RedemptionRepo) GetByID(ctx context.Context, id uint64) (*model.Redemption, error) {
	e, err := scanRedemption(r.db.QueryRowContext(ctx, `SELECT `+redemptionColumns+` FROM redemptions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrRedemptionNotFound
	}
	return e, err
}

// GetByIDTx is GetByID inside a caller-managed transaction.
func (r *RedemptionRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Redemption, error) {
	e, err := scanRedemption(tx.QueryRowContext(ctx, `SELECT `+redemptionColumns+` FROM redemptions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrRedemptionNotFound
	}
	return e, err
}

// DeleteTx removes a redemption and its passengers inside a
// caller-managed transaction. The service deletes the projected
// movement in the same transaction.
func (r *RedemptionRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM passengers WHERE redemption_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM redemptions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRedemptionNotFound
	}
	return nil
}

// ReplacePassengersTx swaps a redemption's passenger list inside a
// caller-managed transaction. Passengers are only ever edited through a
// full redemption re-edit, so replace-all keeps the rows in step with
// the form.
func (r *RedemptionRepo) ReplacePassengersTx(ctx context.Context, tx *sql.Tx, redemptionID uint64, passengers []model.Passenger) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM passengers WHERE redemption_id = ?`, redemptionID); err != nil {
		return err
	}
	if len(passengers) == 0 {
		return nil
	}
	query := `INSERT INTO passengers (redemption_id, full_name, cpf) VALUES `
	args := make([]any, 0, len(passengers)*3)
	for i, p := range passengers {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, redemptionID, p.FullName, p.CPF)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ListPassengers returns the passengers of one redemption.
func (r *RedemptionRepo) ListPassengers(ctx context.Context, redemptionID uint64) ([]model.Passenger, error) {
	const q = `SELECT id, redemption_id, full_name, cpf FROM passengers WHERE redemption_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, redemptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Passenger, 0)
	for rows.Next() {
		var p model.Passenger
		if err := rows.Scan(&p.ID, &p.RedemptionID, &p.FullName, &p.CPF); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListProgramCPFsTx returns the raw CPF strings of every passenger on
// redemptions against a program, optionally excluding one redemption
// (the one being edited). It runs inside the validation transaction so
// the count the validator decides on is the count that is committed.
func (r *RedemptionRepo) ListProgramCPFsTx(ctx context.Context, tx *sql.Tx, programID uint64, excludeRedemptionID *uint64) ([]string, error) {
	q := `SELECT p.cpf FROM passengers p
	      JOIN redemptions e ON e.id = p.redemption_id
	      WHERE e.program_id = ?`
	args := []any{programID}
	if excludeRedemptionID != nil {
		q += ` AND e.id <> ?`
		args = append(args, *excludeRedemptionID)
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var cpf string
		if err := rows.Scan(&cpf); err != nil {
			return nil, err
		}
		out = append(out, cpf)
	}
	return out, rows.Err()
}

// ListByTitular returns a titular's redemptions, newest first.
func (r *RedemptionRepo) ListByTitular(ctx context.Context, t model.Titular) ([]model.Redemption, error) {
	q := `SELECT ` + redemptionColumns + ` FROM redemptions WHERE `
	var args []any
	if t.IsClient() {
		q += `client_id = ?`
		args = append(args, *t.ClientID)
	} else {
		q += `managed_account_id = ?`
		args = append(args, *t.ManagedAccountID)
	}
	rows, err := r.db.QueryContext(ctx, q+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Redemption, 0)
	for rows.Next() {
		e, err := scanRedemption(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
