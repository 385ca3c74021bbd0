package model

import "errors"

// ErrInvalidTitular is returned when ownership is not exactly one of a
// client or a managed account.
var ErrInvalidTitular = errors.New("provide a client or a managed account, but not both")

// Titular identifies the owning party of an account, redemption or
// quotation: exactly one of a client or a managed account.  It replaces
// the pair of nullable foreign keys found in the schema with a small sum
// type so that ownership checks are exhaustive at call sites.
type Titular struct {
    ClientID         *uint64
    ManagedAccountID *uint64
}

// ClientTitular builds a Titular owned by a client.
func ClientTitular(id uint64) Titular { return Titular{ClientID: &id} }

// ManagedTitular builds a Titular owned by a company-managed account.
func ManagedTitular(id uint64) Titular { return Titular{ManagedAccountID: &id} }

// Validate checks the exactly-one-owner invariant.
func (t Titular) Validate() error {
    if (t.ClientID == nil) == (t.ManagedAccountID == nil) {
        return ErrInvalidTitular
    }
    return nil
}

// IsClient reports whether the titular is a client (as opposed to a
// managed account).
func (t Titular) IsClient() bool { return t.ClientID != nil }

// Equal reports whether two titulars identify the same owner.
func (t Titular) Equal(o Titular) bool {
    if t.IsClient() != o.IsClient() {
        return false
    }
    if t.IsClient() {
        return o.ClientID != nil && *t.ClientID == *o.ClientID
    }
    return o.ManagedAccountID != nil && *t.ManagedAccountID == *o.ManagedAccountID
}
