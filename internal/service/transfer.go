package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aerotrip/miles-backoffice/internal/ledger"
	"github.com/aerotrip/miles-backoffice/internal/model"
	"github.com/aerotrip/miles-backoffice/internal/queue"
	"github.com/aerotrip/miles-backoffice/internal/repository"
)

// ErrSameLedgerAccount is returned when source and destination resolve
// to the same ledger account; such a transfer would be a no-op debit
// and credit on one row.
var ErrSameLedgerAccount = errors.New("source and destination accounts must differ")

// ErrNonPositivePoints is returned when a transfer is requested for
// zero or negative points.
var ErrNonPositivePoints = errors.New("points must be positive")

// ErrNegativeBonus is returned when a transfer carries a negative
// bonus percentage.
var ErrNegativeBonus = errors.New("bonus percent cannot be negative")

// TransferService moves points between two fidelity accounts of the
// same titular, applying a bonus multiplier on the incoming side. The
// whole operation is one transaction: both resolved ledger accounts are
// locked (in ascending ID order), the source balance is read under that
// lock, and the two movements are appended before commit. Balances are
// derived on read, so there is nothing to invalidate afterwards.
type TransferService struct {
	Accounts  *repository.AccountRepo
	Programs  *repository.ProgramRepo
	Movements *repository.MovementRepo
}

// NewTransferService constructs a TransferService. All dependencies
// must be non-nil.
func NewTransferService(accounts *repository.AccountRepo, programs *repository.ProgramRepo, movements *repository.MovementRepo) *TransferService {
	if accounts == nil || programs == nil || movements == nil {
		panic("nil repository passed to NewTransferService")
	}
	return &TransferService{Accounts: accounts, Programs: programs, Movements: movements}
}

// TransferResult reports what a committed transfer wrote.
type TransferResult struct {
	SourceAccountID      uint64
	DestinationAccountID uint64
	DebitedPoints        int64
	CreditedPoints       int64
	Cost                 decimal.Decimal
}

// Transfer debits points from the source account's ledger and credits
// the destination's with the bonus applied. points must be positive;
// bonusPercent must be >= 0. The cash cost moved is the proportional
// share of the source's weighted-average cost basis, so a transfer
// changes both accounts' average cost but not the titular's total
// outlay.
func (s *TransferService) Transfer(ctx context.Context, sourceID, destinationID uint64, date time.Time, points int64, bonusPercent decimal.Decimal) (*TransferResult, error) {
	if points <= 0 {
		return nil, ErrNonPositivePoints
	}
	if bonusPercent.IsNegative() {
		return nil, ErrNegativeBonus
	}
	tx, err := s.Accounts.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	source, err := s.Accounts.GetByIDTx(ctx, tx, sourceID)
	if err != nil {
		return nil, err
	}
	destination, err := s.Accounts.GetByIDTx(ctx, tx, destinationID)
	if err != nil {
		return nil, err
	}
	ledgerSource, err := resolveLedgerAccountTx(ctx, tx, s.Accounts, s.Programs, source)
	if err != nil {
		return nil, err
	}
	ledgerDestination, err := resolveLedgerAccountTx(ctx, tx, s.Accounts, s.Programs, destination)
	if err != nil {
		return nil, err
	}
	if ledgerSource.ID == ledgerDestination.ID {
		return nil, ErrSameLedgerAccount
	}

	// Lock both ledger rows in ascending ID order so two concurrent
	// transfers between the same accounts cannot deadlock.
	first, second := ledgerSource.ID, ledgerDestination.ID
	if first > second {
		first, second = second, first
	}
	if _, err := s.Accounts.LockTx(ctx, tx, first); err != nil {
		return nil, err
	}
	if _, err := s.Accounts.LockTx(ctx, tx, second); err != nil {
		return nil, err
	}

	sourceMovements, err := s.Movements.ListByAccountTx(ctx, tx, ledgerSource.ID)
	if err != nil {
		return nil, err
	}
	plan, err := ledger.PlanTransfer(sourceMovements, points, bonusPercent)
	if err != nil {
		return nil, err
	}

	sourceProgram, err := s.Programs.GetByIDTx(ctx, tx, source.ProgramID)
	if err != nil {
		return nil, err
	}
	destinationProgram, err := s.Programs.GetByIDTx(ctx, tx, destination.ProgramID)
	if err != nil {
		return nil, err
	}

	debit := &model.Movement{
		AccountID:   ledgerSource.ID,
		Date:        date,
		Points:      plan.DebitPoints,
		AmountPaid:  plan.Cost.Neg(),
		Description: fmt.Sprintf("Transferência para %s", destinationProgram.Name),
	}
	if err := s.Movements.AppendTx(ctx, tx, debit); err != nil {
		return nil, err
	}
	creditDescription := fmt.Sprintf("Transferência de %s", sourceProgram.Name)
	if bonusPercent.IsPositive() {
		creditDescription = fmt.Sprintf("Transferência de %s (+%s%% bônus)", sourceProgram.Name, bonusPercent.String())
	}
	credit := &model.Movement{
		AccountID:   ledgerDestination.ID,
		Date:        date,
		Points:      plan.CreditPoints,
		AmountPaid:  plan.Cost,
		Description: creditDescription,
	}
	if err := s.Movements.AppendTx(ctx, tx, credit); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	event := queue.PointsTransferredEvent{
		SourceAccountID:      ledgerSource.ID,
		DestinationAccountID: ledgerDestination.ID,
		Points:               points,
		BonusPercent:         bonusPercent.String(),
		CreditedPoints:       plan.CreditPoints,
		Cost:                 plan.Cost.StringFixed(2),
		Date:                 date.UTC().Format("2006-01-02"),
		TransferredAt:        time.Now().UTC().Format(time.RFC3339),
	}
	if err := PublishPointsTransferred(ctx, event); err != nil {
		log.Printf("transfer: event publish failed (ignored): %v", err)
	}

	return &TransferResult{
		SourceAccountID:      ledgerSource.ID,
		DestinationAccountID: ledgerDestination.ID,
		DebitedPoints:        plan.DebitPoints,
		CreditedPoints:       plan.CreditPoints,
		Cost:                 plan.Cost,
	}, nil
}
