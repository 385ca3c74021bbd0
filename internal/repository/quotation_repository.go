package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aerotrip/miles-backoffice/internal/ledger"
	"github.com/aerotrip/miles-backoffice/internal/model"
)

// ErrQuotationNotFound indicates that a quotation was not located in
// the DB.
var ErrQuotationNotFound = errors.New("quotation not found")

// QuotationRepo manages flight quotations. The derived price fields are
// recomputed from the pricing formula on every save; nothing persisted
// is ever trusted as their source of truth.
type QuotationRepo struct {
	db *sql.DB
}

// NewQuotationRepo returns a new QuotationRepo bound to the given database.
func NewQuotationRepo(db *sql.DB) *QuotationRepo { return &QuotationRepo{db: db} }

const quotationColumns = `id, client_id, managed_account_id, program_id, airline, origin, destination,
	travel_class, passengers, departure_at, return_at, miles, market_mile_value, fees, installments,
	installment_factor, cash_discount_factor, reference_price, installment_price, cash_price, savings,
	status, valid_until, created_at`

func scanQuotation(row interface{ Scan(...any) error }) (*model.Quotation, error) {
	var q model.Quotation
	var clientID, managedID, programID sql.NullInt64
	var returnAt, validUntil sql.NullTime
	if err := row.Scan(&q.ID, &clientID, &managedID, &programID, &q.Airline, &q.Origin, &q.Destination,
		&q.TravelClass, &q.Passengers, &q.DepartureAt, &returnAt, &q.Miles, &q.MarketMileValue, &q.Fees,
		&q.Installments, &q.InstallmentFactor, &q.CashDiscountFactor, &q.ReferencePrice,
		&q.InstallmentPrice, &q.CashPrice, &q.Savings, &q.Status, &validUntil, &q.CreatedAt); err != nil {
		return nil, err
	}
	if clientID.Valid {
		v := uint64(clientID.Int64)
		q.Titular.ClientID = &v
	}
	if managedID.Valid {
		v := uint64(managedID.Int64)
		q.Titular.ManagedAccountID = &v
	}
	if programID.Valid {
		v := uint64(programID.Int64)
		q.ProgramID = &v
	}
	if returnAt.Valid {
		t := returnAt.Time
		q.ReturnAt = &t
	}
	if validUntil.Valid {
		t := validUntil.Time
		q.ValidUntil = &t
	}
	return &q, nil
}

// reprice runs the pricing formula and writes the derived fields onto
// the quotation. Every save path goes through it.
func reprice(q *model.Quotation) error {
	pricing, err := ledger.ComputeQuote(q.Miles, q.MarketMileValue, q.Fees,
		q.InstallmentFactor, q.CashDiscountFactor, q.Installments, q.ReferencePrice)
	if err != nil {
		return err
	}
	q.InstallmentPrice = pricing.InstallmentPrice
	q.CashPrice = pricing.CashPrice
	q.Savings = pricing.Savings
	return nil
}

// Create recomputes the derived prices and inserts a new quotation.
func (r *QuotationRepo) Create(ctx context.Context, q *model.Quotation) error {
	if err := q.Titular.Validate(); err != nil {
		return err
	}
	if err := reprice(q); err != nil {
		return err
	}
	const ins = `INSERT INTO quotations (client_id, managed_account_id, program_id, airline, origin, destination,
		travel_class, passengers, departure_at, return_at, miles, market_mile_value, fees, installments,
		installment_factor, cash_discount_factor, reference_price, installment_price, cash_price, savings,
		status, valid_until)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, ins,
		nullableID(q.Titular.ClientID), nullableID(q.Titular.ManagedAccountID), nullableID(q.ProgramID),
		q.Airline, q.Origin, q.Destination, q.TravelClass, q.Passengers, q.DepartureAt, nullableTime(q.ReturnAt),
		q.Miles, q.MarketMileValue, q.Fees, q.Installments, q.InstallmentFactor, q.CashDiscountFactor,
		q.ReferencePrice, q.InstallmentPrice, q.CashPrice, q.Savings, q.Status, nullableTime(q.ValidUntil))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	q.ID = uint64(id)
	return nil
}

// Update recomputes the derived prices and rewrites the quotation.
func (r *QuotationRepo) Update(ctx context.Context, q *model.Quotation) error {
	if err := reprice(q); err != nil {
		return err
	}
	const upd = `UPDATE quotations SET program_id = ?, airline = ?, origin = ?, destination = ?,
		travel_class = ?, passengers = ?, departure_at = ?, return_at = ?, miles = ?, market_mile_value = ?,
		fees = ?, installments = ?, installment_factor = ?, cash_discount_factor = ?, reference_price = ?,
		installment_price = ?, cash_price = ?, savings = ?, status = ?, valid_until = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, upd,
		nullableID(q.ProgramID), q.Airline, q.Origin, q.Destination, q.TravelClass, q.Passengers,
		q.DepartureAt, nullableTime(q.ReturnAt), q.Miles, q.MarketMileValue, q.Fees, q.Installments,
		q.InstallmentFactor, q.CashDiscountFactor, q.ReferencePrice,
		q.InstallmentPrice, q.CashPrice, q.Savings, q.Status, nullableTime(q.ValidUntil), q.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, q.ID); err != nil {
			return err
		}
	}
	return nil
}

// GetByID returns one quotation or ErrQuotationNotFound.
func (r *QuotationRepo) GetByID(ctx context.Context, id uint64) (*model.Quotation, error) {
	q, err := scanQuotation(r.db.QueryRowContext(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrQuotationNotFound
	}
	return q, err
}

// ListByTitular returns a titular's quotations, newest first.
func (r *QuotationRepo) ListByTitular(ctx context.Context, t model.Titular) ([]model.Quotation, error) {
	q := `SELECT ` + quotationColumns + ` FROM quotations WHERE `
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
	out := make([]model.Quotation, 0)
	for rows.Next() {
		item, err := scanQuotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

// Delete removes a quotation.
func (r *QuotationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM quotations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrQuotationNotFound
	}
	return nil
}
