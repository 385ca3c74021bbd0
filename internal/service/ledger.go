// Package service contains the transaction scripts of the loyalty core:
// balance reads, points transfers and redemption saves. Each write path
// runs as one database transaction that locks the rows it decides on;
// there are no ORM-style save hooks, the scripts call resolve →
// validate → write explicitly.
package service

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/aerotrip/miles-backoffice/internal/ledger"
	"github.com/aerotrip/miles-backoffice/internal/model"
	"github.com/aerotrip/miles-backoffice/internal/repository"
)

// LedgerService exposes derived balance figures to handlers. All reads
// here are display reads: they run outside transactions and may trail a
// concurrent write by a moment, which is acceptable for dashboards.
// Validation-before-write paths never use this service; they read
// inside their own transaction.
type LedgerService struct {
	Accounts  *repository.AccountRepo
	Programs  *repository.ProgramRepo
	Movements *repository.MovementRepo
}

// NewLedgerService constructs a LedgerService. All dependencies must be
// non-nil.
func NewLedgerService(accounts *repository.AccountRepo, programs *repository.ProgramRepo, movements *repository.MovementRepo) *LedgerService {
	if accounts == nil || programs == nil || movements == nil {
		panic("nil repository passed to NewLedgerService")
	}
	return &LedgerService{Accounts: accounts, Programs: programs, Movements: movements}
}

// BalanceSummary is the derived state of one fidelity account.
type BalanceSummary struct {
	Points             int64
	TotalPaid          decimal.Decimal
	AvgCostPerThousand decimal.Decimal
}

// ResolveLedgerAccount returns the account that effectively holds the
// ledger for the given account: the account itself for PRINCIPAL
// programs, or the same titular's account on the base program for
// LINKED ones. A linked account without a provisioned base sibling is a
// configuration error (ledger.ErrLinkedAccountMissing); the base
// account is never auto-created.
func (s *LedgerService) ResolveLedgerAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	program, err := s.Programs.GetByID(ctx, account.ProgramID)
	if err != nil {
		return nil, err
	}
	if !program.IsLinked() {
		return account, nil
	}
	base, err := s.Accounts.FindByTitularAndProgram(ctx, account.Titular, *program.BaseProgramID)
	if err == repository.ErrAccountNotFound {
		return nil, ledger.ErrLinkedAccountMissing
	}
	return base, err
}

// resolveLedgerAccountTx is the transactional variant used by write
// paths; the sibling lookup participates in the caller's transaction.
func resolveLedgerAccountTx(ctx context.Context, tx *sql.Tx, accounts *repository.AccountRepo, programs *repository.ProgramRepo, account *model.Account) (*model.Account, error) {
	program, err := programs.GetByIDTx(ctx, tx, account.ProgramID)
	if err != nil {
		return nil, err
	}
	if !program.IsLinked() {
		return account, nil
	}
	base, err := accounts.FindByTitularAndProgramTx(ctx, tx, account.Titular, *program.BaseProgramID)
	if err == repository.ErrAccountNotFound {
		return nil, ledger.ErrLinkedAccountMissing
	}
	return base, err
}

// GetBalance returns the point balance, total paid and weighted-average
// cost per thousand of an account, read through its resolved ledger
// account.
func (s *LedgerService) GetBalance(ctx context.Context, accountID uint64) (BalanceSummary, error) {
	movements, err := s.sharedMovements(ctx, accountID)
	if err != nil {
		return BalanceSummary{}, err
	}
	return BalanceSummary{
		Points:             ledger.Balance(movements),
		TotalPaid:          ledger.TotalPaid(movements),
		AvgCostPerThousand: ledger.AverageCostPerThousand(movements),
	}, nil
}

// GetMarketValueEstimate values an account's balance at its own
// program's market mile price. For linked accounts the balance is the
// shared base balance but the price is the linked program's: shared
// quantity, independent price.
func (s *LedgerService) GetMarketValueEstimate(ctx context.Context, accountID uint64) (decimal.Decimal, error) {
	account, err := s.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	program, err := s.Programs.GetByID(ctx, account.ProgramID)
	if err != nil {
		return decimal.Zero, err
	}
	movements, err := s.sharedMovementsOf(ctx, account)
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.MarketValueEstimate(ledger.Balance(movements), program), nil
}

// SharedMovements lists the movements visible to an account: the full
// log of its resolved ledger account.
func (s *LedgerService) SharedMovements(ctx context.Context, accountID uint64) ([]model.Movement, error) {
	return s.sharedMovements(ctx, accountID)
}

func (s *LedgerService) sharedMovements(ctx context.Context, accountID uint64) ([]model.Movement, error) {
	account, err := s.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.sharedMovementsOf(ctx, account)
}

func (s *LedgerService) sharedMovementsOf(ctx context.Context, account *model.Account) ([]model.Movement, error) {
	base, err := s.ResolveLedgerAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	return s.Movements.ListByAccount(ctx, base.ID)
}
