package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aerotrip/miles-backoffice/internal/ledger"
	"github.com/aerotrip/miles-backoffice/internal/model"
	"github.com/aerotrip/miles-backoffice/internal/queue"
	"github.com/aerotrip/miles-backoffice/internal/repository"
)

// RedemptionService persists ticket emissions. One transaction covers
// the CPF-limit validation, the redemption row, the passenger list and
// the ledger projection, so either all of it lands or none does. The
// program row is locked first: two concurrent redemptions against the
// same program serialize on that lock and cannot jointly exceed the
// CPF limit.
type RedemptionService struct {
	Redemptions *repository.RedemptionRepo
	Accounts    *repository.AccountRepo
	Programs    *repository.ProgramRepo
	Movements   *repository.MovementRepo
}

// NewRedemptionService constructs a RedemptionService. All dependencies
// must be non-nil.
func NewRedemptionService(redemptions *repository.RedemptionRepo, accounts *repository.AccountRepo, programs *repository.ProgramRepo, movements *repository.MovementRepo) *RedemptionService {
	if redemptions == nil || accounts == nil || programs == nil || movements == nil {
		panic("nil repository passed to NewRedemptionService")
	}
	return &RedemptionService{Redemptions: redemptions, Accounts: accounts, Programs: programs, Movements: movements}
}

// SaveResult reports the outcome of a redemption save.
type SaveResult struct {
	Redemption *model.Redemption
	NewCPFs    int             // distinct CPFs this save added to the program
	Available  *int            // CPF slots that were available (nil = unlimited)
	PointsCost decimal.Decimal // cash value attributed to the consumed points
	Economy    decimal.Decimal // referencePrice - (cashPaid + PointsCost)
}

// Save creates or updates a redemption together with its passenger
// list. A zero redemption ID creates; a non-zero one updates, excluding
// itself from the CPF count so re-saving never double-counts its own
// passengers.
func (s *RedemptionService) Save(ctx context.Context, redemption *model.Redemption, passengers []model.Passenger) (*SaveResult, error) {
	if err := redemption.Titular.Validate(); err != nil {
		return nil, err
	}
	tx, err := s.Redemptions.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Serialize CPF validation per program.
	program, err := s.Programs.LockTx(ctx, tx, redemption.ProgramID)
	if err != nil {
		return nil, err
	}

	var exclude *uint64
	if redemption.ID != 0 {
		exclude = &redemption.ID
	}
	usedRaw, err := s.Redemptions.ListProgramCPFsTx(ctx, tx, program.ID, exclude)
	if err != nil {
		return nil, err
	}
	proposed := make([]string, 0, len(passengers))
	for _, p := range passengers {
		proposed = append(proposed, p.CPF)
	}
	newCount, available, err := ledger.ValidateCPFUsage(program.CPFLimit, ledger.NormalizeCPFSet(usedRaw), proposed)
	if err != nil {
		return nil, err
	}

	if redemption.ID == 0 {
		err = s.Redemptions.CreateTx(ctx, tx, redemption)
	} else {
		if _, err := s.Redemptions.GetByIDTx(ctx, tx, redemption.ID); err != nil {
			return nil, err
		}
		err = s.Redemptions.UpdateTx(ctx, tx, redemption)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Redemptions.ReplacePassengersTx(ctx, tx, redemption.ID, passengers); err != nil {
		return nil, err
	}

	account, pointsCost, err := s.projectTx(ctx, tx, redemption)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	s.publishProjection(ctx, redemption, account, pointsCost)

	return &SaveResult{
		Redemption: redemption,
		NewCPFs:    newCount,
		Available:  available,
		PointsCost: pointsCost,
		Economy:    redemption.ReferencePrice.Sub(redemption.CashPaid.Add(pointsCost)),
	}, nil
}

// Delete removes a redemption, its passengers and its projected
// movement in one transaction.
func (s *RedemptionService) Delete(ctx context.Context, redemptionID uint64) error {
	tx, err := s.Redemptions.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := s.Movements.DeleteByRedemptionTx(ctx, tx, redemptionID); err != nil {
		return err
	}
	if err := s.Redemptions.DeleteTx(ctx, tx, redemptionID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Project re-runs the ledger projection of an existing redemption. It
// backs the external ProjectRedemptionMovement operation; the regular
// save path projects in the same transaction already.
func (s *RedemptionService) Project(ctx context.Context, redemptionID uint64) error {
	tx, err := s.Redemptions.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	redemption, err := s.Redemptions.GetByIDTx(ctx, tx, redemptionID)
	if err != nil {
		return err
	}
	account, pointsCost, err := s.projectTx(ctx, tx, redemption)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	s.publishProjection(ctx, redemption, account, pointsCost)
	return nil
}

// projectTx resolves the ledger account for the redemption's titular
// and program, locks it, and upserts (or retracts) the projected
// movement. Returns the ledger account written to and the cash cost
// attributed to the consumed points.
func (s *RedemptionService) projectTx(ctx context.Context, tx *sql.Tx, redemption *model.Redemption) (*model.Account, decimal.Decimal, error) {
	titularAccount, err := s.Accounts.FindByTitularAndProgramTx(ctx, tx, redemption.Titular, redemption.ProgramID)
	if err == repository.ErrAccountNotFound {
		// No enrollment on the program: nothing to debit, cash-only emission.
		if redemption.PointsUsed == 0 {
			return nil, decimal.Zero, nil
		}
		return nil, decimal.Zero, err
	}
	if err != nil {
		return nil, decimal.Zero, err
	}
	account, err := resolveLedgerAccountTx(ctx, tx, s.Accounts, s.Programs, titularAccount)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if _, err := s.Accounts.LockTx(ctx, tx, account.ID); err != nil {
		return nil, decimal.Zero, err
	}

	if redemption.PointsUsed == 0 {
		return account, decimal.Zero, s.Movements.DeleteByRedemptionTx(ctx, tx, redemption.ID)
	}

	movements, err := s.Movements.ListByAccountTx(ctx, tx, account.ID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	avg := ledger.AverageCostPerThousand(movements)
	if !avg.IsPositive() {
		// No cost history on the ledger yet; fall back to the program's
		// own market mile price so the emission still carries a cost.
		program, err := s.Programs.GetByIDTx(ctx, tx, redemption.ProgramID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		avg = program.AverageMilePrice
	}
	pointsCost := ledger.ProportionalCost(redemption.PointsUsed, avg)

	date := time.Now().UTC()
	if redemption.DepartureDate != nil {
		date = *redemption.DepartureDate
	}
	redemptionID := redemption.ID
	movement := &model.Movement{
		AccountID:    account.ID,
		RedemptionID: &redemptionID,
		Date:         date,
		Points:       -redemption.PointsUsed,
		AmountPaid:   pointsCost.Neg(),
		Description:  fmt.Sprintf("Emissão #%d - uso de pontos", redemption.ID),
	}
	if err := s.Movements.UpsertByRedemptionTx(ctx, tx, movement); err != nil {
		return nil, decimal.Zero, err
	}
	return account, pointsCost, nil
}

func (s *RedemptionService) publishProjection(ctx context.Context, redemption *model.Redemption, account *model.Account, pointsCost decimal.Decimal) {
	if account == nil {
		return
	}
	event := queue.RedemptionProjectedEvent{
		RedemptionID: redemption.ID,
		AccountID:    account.ID,
		ProgramID:    redemption.ProgramID,
		PointsUsed:   redemption.PointsUsed,
		PointsCost:   pointsCost.StringFixed(2),
		Retracted:    redemption.PointsUsed == 0,
		ProjectedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := PublishRedemptionProjected(ctx, event); err != nil {
		log.Printf("redemption: event publish failed (ignored): %v", err)
	}
}
