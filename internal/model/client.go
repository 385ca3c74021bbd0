package model

import "time"

// Client is an agency customer who can hold fidelity accounts,
// quotations and redemptions.  Only the fields the ledger core needs
// are modeled; contact details live with the excluded CRUD layer.
type Client struct {
    ID        uint64    // clients.id
    Name      string    // clients.name
    Email     string    // clients.email
    IsActive  bool      // clients.is_active
    CreatedAt time.Time // clients.created_at
}

// ManagedAccount is an agency-controlled fidelity titular used for
// third-party emissions.  It can own the same resources a client can.
type ManagedAccount struct {
    ID        uint64    // managed_accounts.id
    Name      string    // managed_accounts.name
    Notes     string    // managed_accounts.notes
    IsActive  bool      // managed_accounts.is_active
    CreatedAt time.Time // managed_accounts.created_at
}
