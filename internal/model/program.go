package model

import (
    "errors"

    "github.com/shopspring/decimal"
)

// Program kinds.  A PRINCIPAL program owns its own point pool; a LINKED
// program shares the pool of its base program but keeps an independent
// market mile price.
const (
    ProgramPrincipal = "PRINCIPAL"
    ProgramLinked    = "LINKED"
)

// Program represents a loyalty program (e.g. an airline mileage program).
//
// Fields:
//  ID               – primary key identifier.
//  Name             – display name of the program.
//  Kind             – PRINCIPAL or LINKED.
//  BaseProgramID    – base program reference, set only when Kind is LINKED.
//  AverageMilePrice – market price per 1,000 points ("milheiro"), used to
//                     value balances.  Program-specific even for LINKED
//                     programs whose balance lives on the base account.
//  CPFLimit         – maximum number of distinct CPFs that may benefit from
//                     redemptions against this program.  Nil means unlimited.
type Program struct {
    ID               uint64          // programs.id
    Name             string          // programs.name
    Kind             string          // programs.kind
    BaseProgramID    *uint64         // programs.base_program_id (nullable)
    AverageMilePrice decimal.Decimal // programs.average_mile_price
    CPFLimit         *uint           // programs.cpf_limit (nullable)
}

// IsLinked reports whether the program shares its point pool with a base
// program.
func (p *Program) IsLinked() bool { return p.Kind == ProgramLinked }

// Validate enforces the structural invariants between Kind and
// BaseProgramID.  A LINKED program must reference a base program and may
// not reference itself; a PRINCIPAL program must not have a base.  The
// base program itself must be PRINCIPAL, which is checked by the
// repository against the referenced row.
func (p *Program) Validate() error {
    switch p.Kind {
    case ProgramPrincipal:
        if p.BaseProgramID != nil {
            return errors.New("principal programs cannot reference a base program")
        }
    case ProgramLinked:
        if p.BaseProgramID == nil {
            return errors.New("linked programs require a base program")
        }
        if *p.BaseProgramID == p.ID && p.ID != 0 {
            return errors.New("a program cannot be linked to itself")
        }
    default:
        return errors.New("unknown program kind")
    }
    return nil
}
