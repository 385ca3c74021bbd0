// Package repository contains data access logic for the loyalty core.
// This file manages loyalty programs. A program either owns its own
// point pool (PRINCIPAL) or shares the pool of a base program (LINKED)
// while keeping its own market mile price and CPF limit.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aerotrip/miles-backoffice/internal/model"
)

// ErrProgramNotFound indicates that a program was not located in the DB.
var ErrProgramNotFound = errors.New("program not found")

// ErrBaseNotPrincipal indicates that the referenced base program is not
// a PRINCIPAL program. LINKED programs may only chain one level deep.
var ErrBaseNotPrincipal = errors.New("base program must be a principal program")

// ProgramRepo manages persistence for loyalty programs.
type ProgramRepo struct {
	db *sql.DB
}

// NewProgramRepo returns a new ProgramRepo bound to the given database.
func NewProgramRepo(db *sql.DB) *ProgramRepo { return &ProgramRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *ProgramRepo) DB() *sql.DB { return r.db }

const programColumns = `id, name, kind, base_program_id, average_mile_price, cpf_limit`

func scanProgram(row interface{ Scan(...any) error }) (*model.Program, error) {
	var p model.Program
	var base sql.NullInt64
	var limit sql.NullInt64
	if err := row.Scan(&p.ID, &p.Name, &p.Kind, &base, &p.AverageMilePrice, &limit); err != nil {
		return nil, err
	}
	if base.Valid {
		b := uint64(base.Int64)
		p.BaseProgramID = &b
	}
	if limit.Valid {
		l := uint(limit.Int64)
		p.CPFLimit = &l
	}
	return &p, nil
}

// Create validates the program invariants and inserts a new row. When
// the program is LINKED, the referenced base program must exist and be
// PRINCIPAL; otherwise ErrBaseNotPrincipal (or ErrProgramNotFound) is
// returned.
func (r *ProgramRepo) Create(ctx context.Context, p *model.Program) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.IsLinked() {
		if err := r.checkBase(ctx, *p.BaseProgramID); err != nil {
			return err
		}
	}
	const q = `INSERT INTO programs (name, kind, base_program_id, average_mile_price, cpf_limit) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.Name, p.Kind, nullableID(p.BaseProgramID), p.AverageMilePrice, nullableUint(p.CPFLimit))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// Update rewrites a program's mutable fields, re-checking the kind and
// base-program invariants against the current data.
func (r *ProgramRepo) Update(ctx context.Context, p *model.Program) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.IsLinked() {
		if *p.BaseProgramID == p.ID {
			return errors.New("a program cannot be linked to itself")
		}
		if err := r.checkBase(ctx, *p.BaseProgramID); err != nil {
			return err
		}
	}
	const q = `UPDATE programs SET name = ?, kind = ?, base_program_id = ?, average_mile_price = ?, cpf_limit = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, p.Name, p.Kind, nullableID(p.BaseProgramID), p.AverageMilePrice, nullableUint(p.CPFLimit), p.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the row is gone or nothing changed; distinguish by lookup.
		if _, err := r.GetByID(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProgramRepo) checkBase(ctx context.Context, baseID uint64) error {
	var kind string
	err := r.db.QueryRowContext(ctx, `SELECT kind FROM programs WHERE id = ?`, baseID).Scan(&kind)
	if err == sql.ErrNoRows {
		return ErrProgramNotFound
	}
	if err != nil {
		return err
	}
	if kind != model.ProgramPrincipal {
		return ErrBaseNotPrincipal
	}
	return nil
}

// GetByID returns one program or ErrProgramNotFound.
func (r *ProgramRepo) GetByID(ctx context.Context, id uint64) (*model.Program, error) {
	p, err := scanProgram(r.db.QueryRowContext(ctx, `SELECT `+programColumns+` FROM programs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrProgramNotFound
	}
	return p, err
}

// GetByIDTx is GetByID inside a caller-managed transaction.
func (r *ProgramRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Program, error) {
	p, err := scanProgram(tx.QueryRowContext(ctx, `SELECT `+programColumns+` FROM programs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrProgramNotFound
	}
	return p, err
}

// LockTx locks a program row for the duration of the transaction and
// returns it. The CPF-limit validator locks the program so two
// concurrent redemptions cannot both pass the check and jointly exceed
// the limit.
func (r *ProgramRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Program, error) {
	p, err := scanProgram(tx.QueryRowContext(ctx, `SELECT `+programColumns+` FROM programs WHERE id = ? FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return nil, ErrProgramNotFound
	}
	return p, err
}

// List returns all programs ordered by name.
func (r *ProgramRepo) List(ctx context.Context) ([]model.Program, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+programColumns+` FROM programs ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Program, 0)
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Delete removes a program. ErrConflict is returned when accounts,
// redemptions or linked programs still reference it.
func (r *ProgramRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	const depQ = `SELECT (SELECT COUNT(*) FROM accounts WHERE program_id = ?) +
	                     (SELECT COUNT(*) FROM redemptions WHERE program_id = ?) +
	                     (SELECT COUNT(*) FROM programs WHERE base_program_id = ?)`
	if err := r.db.QueryRowContext(ctx, depQ, id, id, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM programs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProgramNotFound
	}
	return nil
}

// nullableID converts an optional uint64 into a driver-friendly value.
func nullableID(v *uint64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableUint(v *uint) any {
	if v == nil {
		return nil
	}
	return *v
}
