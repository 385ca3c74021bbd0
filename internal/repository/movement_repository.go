package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aerotrip/miles-backoffice/internal/model"
)

// ErrMovementNotFound indicates that a movement was not located in the DB.
var ErrMovementNotFound = errors.New("movement not found")

// MovementRepo manages the append-only point ledger. Rows are written
// by operators (manual entries), the transfer service and the
// redemption projection; nothing else mutates them. Projected rows
// carry the redemption_id that produced them, which is the upsert key
// that keeps redemption saves idempotent.
type MovementRepo struct {
	db *sql.DB
}

// NewMovementRepo returns a new MovementRepo bound to the given database.
func NewMovementRepo(db *sql.DB) *MovementRepo { return &MovementRepo{db: db} }

// DB exposes the underlying sql.DB for transaction control.
func (r *MovementRepo) DB() *sql.DB { return r.db }

const movementColumns = `id, account_id, redemption_id, movement_date, points, amount_paid, description`

func scanMovement(row interface{ Scan(...any) error }) (*model.Movement, error) {
	var m model.Movement
	var redemptionID sql.NullInt64
	if err := row.Scan(&m.ID, &m.AccountID, &redemptionID, &m.Date, &m.Points, &m.AmountPaid, &m.Description); err != nil {
		return nil, err
	}
	if redemptionID.Valid {
		v := uint64(redemptionID.Int64)
		m.RedemptionID = &v
	}
	return &m, nil
}

// AppendTx inserts one ledger row inside a caller-managed transaction.
// There is no validation beyond required fields; each append is a
// single atomic row operation.
func (r *MovementRepo) AppendTx(ctx context.Context, tx *sql.Tx, m *model.Movement) error {
	const q = `INSERT INTO movements (account_id, redemption_id, movement_date, points, amount_paid, description)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, m.AccountID, nullableID(m.RedemptionID), m.Date, m.Points, m.AmountPaid, m.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// Append inserts one ledger row outside any transaction. Operators use
// it for manual movements (point purchases, club stipends).
func (r *MovementRepo) Append(ctx context.Context, m *model.Movement) error {
	const q = `INSERT INTO movements (account_id, redemption_id, movement_date, points, amount_paid, description)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.AccountID, nullableID(m.RedemptionID), m.Date, m.Points, m.AmountPaid, m.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// UpsertByRedemptionTx finds the movement projected by a redemption on
// an account and replaces its date, points and amount; when none exists
// it appends one. When both points and amount are zero it instead
// deletes any matching row, retracting the projection. Repeated saves
// of the same redemption therefore converge to exactly one row, or
// none.
func (r *MovementRepo) UpsertByRedemptionTx(ctx context.Context, tx *sql.Tx, m *model.Movement) error {
	if m.RedemptionID == nil {
		return errors.New("movement has no redemption key")
	}
	if m.Points == 0 && m.AmountPaid.IsZero() {
		return r.DeleteByRedemptionTx(ctx, tx, *m.RedemptionID)
	}
	const upd = `UPDATE movements SET account_id = ?, movement_date = ?, points = ?, amount_paid = ?, description = ?
		WHERE redemption_id = ?`
	res, err := tx.ExecContext(ctx, upd, m.AccountID, m.Date, m.Points, m.AmountPaid, m.Description, *m.RedemptionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	// No existing projection and an UPDATE writing identical values both
	// report zero affected; count before inserting.
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM movements WHERE redemption_id = ?`, *m.RedemptionID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return nil
	}
	return r.AppendTx(ctx, tx, m)
}

// DeleteByRedemptionTx removes the movement projected by a redemption,
// if any.
func (r *MovementRepo) DeleteByRedemptionTx(ctx context.Context, tx *sql.Tx, redemptionID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM movements WHERE redemption_id = ?`, redemptionID)
	return err
}

// ListByAccount returns every movement of one account. Callers sort.
func (r *MovementRepo) ListByAccount(ctx context.Context, accountID uint64) ([]model.Movement, error) {
	return r.list(ctx, r.db.QueryContext, accountID)
}

// ListByAccountTx is ListByAccount inside a caller-managed transaction.
// Ledger write paths read through it after locking the account row so
// the balance they decide on cannot change underneath them.
func (r *MovementRepo) ListByAccountTx(ctx context.Context, tx *sql.Tx, accountID uint64) ([]model.Movement, error) {
	return r.list(ctx, tx.QueryContext, accountID)
}

type queryFunc func(context.Context, string, ...any) (*sql.Rows, error)

func (r *MovementRepo) list(ctx context.Context, query queryFunc, accountID uint64) ([]model.Movement, error) {
	rows, err := query(ctx, `SELECT `+movementColumns+` FROM movements WHERE account_id = ? ORDER BY movement_date, id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Movement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// GetByID returns one movement or ErrMovementNotFound.
func (r *MovementRepo) GetByID(ctx context.Context, id uint64) (*model.Movement, error) {
	m, err := scanMovement(r.db.QueryRowContext(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrMovementNotFound
	}
	return m, err
}

// Update rewrites a manual movement's fields. Projected movements
// (those carrying a redemption_id) belong to their redemption and are
// rejected with ErrConflict; editing the redemption re-projects them.
func (r *MovementRepo) Update(ctx context.Context, m *model.Movement) error {
	existing, err := r.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	if existing.RedemptionID != nil {
		return ErrConflict
	}
	const q = `UPDATE movements SET movement_date = ?, points = ?, amount_paid = ?, description = ? WHERE id = ?`
	_, err = r.db.ExecContext(ctx, q, m.Date, m.Points, m.AmountPaid, m.Description, m.ID)
	return err
}

// Delete removes a manual movement. Projected movements are rejected
// with ErrConflict for the same reason as Update.
func (r *MovementRepo) Delete(ctx context.Context, id uint64) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.RedemptionID != nil {
		return ErrConflict
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM movements WHERE id = ?`, id)
	return err
}
