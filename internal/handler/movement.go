package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/aerotrip/miles-backoffice/internal/ledger"
	"github.com/aerotrip/miles-backoffice/internal/model"
	"github.com/aerotrip/miles-backoffice/internal/repository"
	"github.com/aerotrip/miles-backoffice/internal/service"
)

// MovementHandler exposes the manual movement CRUD used by operators to
// register purchases, club credits and corrections, plus the transfer
// endpoint.  Manual writes land on the resolved ledger account, so a
// movement posted against a LINKED account is stored under the titular's
// base program account.
type MovementHandler struct {
	Movements *repository.MovementRepo
	Accounts  *repository.AccountRepo
	Ledger    *service.LedgerService
	Transfers *service.TransferService
}

// NewMovementHandler constructs a MovementHandler and panics on nil dependencies.
func NewMovementHandler(movements *repository.MovementRepo, accounts *repository.AccountRepo, ledgerSvc *service.LedgerService, transfers *service.TransferService) *MovementHandler {
	if movements == nil || accounts == nil || ledgerSvc == nil || transfers == nil {
		panic("nil dependency passed to NewMovementHandler")
	}
	return &MovementHandler{Movements: movements, Accounts: accounts, Ledger: ledgerSvc, Transfers: transfers}
}

type movementBody struct {
	AccountID   uint64          `json:"account_id"`
	Date        *time.Time      `json:"date"`
	Points      int64           `json:"points"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	Description string          `json:"description"`
}

type movementResp struct {
	ID           uint64          `json:"id"`
	AccountID    uint64          `json:"account_id"`
	RedemptionID *uint64         `json:"redemption_id,omitempty"`
	Date         time.Time       `json:"date"`
	Points       int64           `json:"points"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
	Description  string          `json:"description"`
}

func movementRespOf(m *model.Movement) movementResp {
	return movementResp{
		ID:           m.ID,
		AccountID:    m.AccountID,
		RedemptionID: m.RedemptionID,
		Date:         m.Date,
		Points:       m.Points,
		AmountPaid:   m.AmountPaid,
		Description:  m.Description,
	}
}

// Create handles POST /v1/movements.
func (h *MovementHandler) Create(c echo.Context) error {
	var body movementBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.AccountID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "account_id is required"})
	}
	if body.Points == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "points must be nonzero"})
	}
	account, err := h.Accounts.GetByID(c.Request().Context(), body.AccountID)
	if err != nil {
		if err == repository.ErrAccountNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	// Linked accounts have no log of their own; the write lands on the
	// titular's base program account.
	target, err := h.Ledger.ResolveLedgerAccount(c.Request().Context(), account)
	if err != nil {
		return ledgerReadError(c, err)
	}
	date := time.Now().UTC()
	if body.Date != nil {
		date = *body.Date
	}
	m := &model.Movement{
		AccountID:   target.ID,
		Date:        date,
		Points:      body.Points,
		AmountPaid:  body.AmountPaid,
		Description: strings.TrimSpace(body.Description),
	}
	if err := h.Movements.Append(c.Request().Context(), m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create movement"})
	}
	return c.JSON(http.StatusCreated, movementRespOf(m))
}

// Get handles GET /v1/movements/:id.
func (h *MovementHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	m, err := h.Movements.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrMovementNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movement not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, movementRespOf(m))
}

// Update handles PUT /v1/movements/:id.  Movements projected from a
// redemption are owned by that redemption and rejected here.
func (h *MovementHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body movementBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Points == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "points must be nonzero"})
	}
	m, err := h.Movements.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrMovementNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movement not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if body.Date != nil {
		m.Date = *body.Date
	}
	m.Points = body.Points
	m.AmountPaid = body.AmountPaid
	m.Description = strings.TrimSpace(body.Description)
	if err := h.Movements.Update(c.Request().Context(), m); err != nil {
		switch err {
		case repository.ErrMovementNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movement not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "movement belongs to a redemption"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, movementRespOf(m))
}

// Delete handles DELETE /v1/movements/:id (ADMIN only per route config).
func (h *MovementHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Movements.Delete(c.Request().Context(), id); err != nil {
		switch err {
		case repository.ErrMovementNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movement not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "movement belongs to a redemption"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

type transferBody struct {
	SourceAccountID      uint64          `json:"source_account_id"`
	DestinationAccountID uint64          `json:"destination_account_id"`
	Date                 *time.Time      `json:"date"`
	Points               int64           `json:"points"`
	BonusPercent         decimal.Decimal `json:"bonus_percent"`
}

// Transfer handles POST /v1/transfers.
func (h *MovementHandler) Transfer(c echo.Context) error {
	var body transferBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.SourceAccountID == 0 || body.DestinationAccountID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "source and destination accounts are required"})
	}
	date := time.Now().UTC()
	if body.Date != nil {
		date = *body.Date
	}
	result, err := h.Transfers.Transfer(c.Request().Context(),
		body.SourceAccountID, body.DestinationAccountID, date, body.Points, body.BonusPercent)
	if err != nil {
		return transferError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"source_account_id":      result.SourceAccountID,
		"destination_account_id": result.DestinationAccountID,
		"debited_points":         result.DebitedPoints,
		"credited_points":        result.CreditedPoints,
		"cost":                   result.Cost,
	})
}

// transferError maps transfer failures to HTTP responses.
func transferError(c echo.Context, err error) error {
	if insufficient, ok := err.(*ledger.InsufficientBalanceError); ok {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "insufficient balance",
			"available": insufficient.Available,
		})
	}
	switch err {
	case repository.ErrAccountNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
	case ledger.ErrLinkedAccountMissing:
		return c.JSON(http.StatusConflict, echo.Map{"error": "no account on the base program for this titular"})
	case service.ErrSameLedgerAccount, service.ErrNonPositivePoints, service.ErrNegativeBonus:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transfer failed"})
}
