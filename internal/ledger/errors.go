// Package ledger implements the pure domain math of the loyalty core:
// balance and average-cost derivation from movement logs, linked-program
// resolution rules, the distinct-CPF limit check, the quotation pricing
// formula and the transfer-with-bonus arithmetic.  Nothing in this
// package touches SQL or caches anything; callers pass in the movement
// lists they read and decide freshness themselves.
//
// The cost basis is a weighted average over the entire movement history,
// not FIFO/LIFO.  That matches the agency's books and is intentional.
package ledger

import (
    "errors"
    "fmt"
)

// ErrLinkedAccountMissing is returned when an account on a LINKED program
// has no sibling account on the base program for the same titular.  The
// base account must be provisioned by an operator; it is never
// auto-created.
var ErrLinkedAccountMissing = errors.New("no base-program account exists for this titular; create it before using the linked program")

// ErrInvalidInstallments is returned when a quotation asks for fewer
// than one installment.
var ErrInvalidInstallments = errors.New("installments must be at least 1")

// InsufficientBalanceError is returned when a transfer debits more
// points than the source ledger account holds.  Available carries the
// actual balance so the operator can correct the form.
type InsufficientBalanceError struct {
    Available int64
}

func (e *InsufficientBalanceError) Error() string {
    return fmt.Sprintf("insufficient balance: only %d points available", e.Available)
}

// CpfLimitExceededError is returned when a redemption would introduce
// more new CPFs than the program has left.  NewCount is the number of
// CPFs the redemption would add; Available is how many slots remain.
type CpfLimitExceededError struct {
    NewCount  int
    Available int
}

func (e *CpfLimitExceededError) Error() string {
    return fmt.Sprintf("CPF limit exceeded: this redemption adds %d new CPF(s) but only %d slot(s) remain", e.NewCount, e.Available)
}
