package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aerotrip/miles-backoffice/internal/model"
)

// ErrClientNotFound is returned when a client lookup matches no row.
var ErrClientNotFound = errors.New("client not found")

// ErrManagedAccountNotFound is returned when a managed account lookup
// matches no row.
var ErrManagedAccountNotFound = errors.New("managed account not found")

// ClientRepo persists the two titular directories: agency clients and
// company-managed accounts.  Both can own fidelity accounts,
// redemptions and quotations; the ledger itself only references them
// by ID.
type ClientRepo struct {
	db *sql.DB
}

// NewClientRepo builds a ClientRepo around the given database handle.
func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{db: db} }

// CreateClient inserts a new client and fills in its ID.
func (r *ClientRepo) CreateClient(ctx context.Context, c *model.Client) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (name, email, is_active) VALUES (?, ?, ?)`,
		c.Name, c.Email, c.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// GetClient loads one client by ID.
func (r *ClientRepo) GetClient(ctx context.Context, id uint64) (*model.Client, error) {
	var c model.Client
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, is_active, created_at FROM clients WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.IsActive, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListClients returns all clients ordered by name.
func (r *ClientRepo) ListClients(ctx context.Context) ([]model.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, is_active, created_at FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Client
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateManagedAccount inserts a new managed account and fills in its ID.
func (r *ClientRepo) CreateManagedAccount(ctx context.Context, m *model.ManagedAccount) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO managed_accounts (name, notes, is_active) VALUES (?, ?, ?)`,
		m.Name, m.Notes, m.IsActive)
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

// GetManagedAccount loads one managed account by ID.
func (r *ClientRepo) GetManagedAccount(ctx context.Context, id uint64) (*model.ManagedAccount, error) {
	var m model.ManagedAccount
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, notes, is_active, created_at FROM managed_accounts WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.Notes, &m.IsActive, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrManagedAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListManagedAccounts returns all managed accounts ordered by name.
func (r *ClientRepo) ListManagedAccounts(ctx context.Context) ([]model.ManagedAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, notes, is_active, created_at FROM managed_accounts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ManagedAccount
	for rows.Next() {
		var m model.ManagedAccount
		if err := rows.Scan(&m.ID, &m.Name, &m.Notes, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
