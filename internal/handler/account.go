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

// AccountHandler exposes fidelity account CRUD plus the derived balance
// reads.  Balance, market value and the movement listing all go through
// the ledger service so LINKED accounts transparently read their base
// program sibling's log.
type AccountHandler struct {
	Accounts *repository.AccountRepo
	Ledger   *service.LedgerService
}

// NewAccountHandler constructs an AccountHandler and panics on nil dependencies.
func NewAccountHandler(accounts *repository.AccountRepo, ledgerSvc *service.LedgerService) *AccountHandler {
	if accounts == nil || ledgerSvc == nil {
		panic("nil dependency passed to NewAccountHandler")
	}
	return &AccountHandler{Accounts: accounts, Ledger: ledgerSvc}
}

type accountBody struct {
	titularRef
	ProgramID         uint64          `json:"program_id"`
	ClubPeriodicity   string          `json:"club_periodicity"`
	ClubMonthlyPoints int             `json:"club_monthly_points"`
	ClubFee           decimal.Decimal `json:"club_fee"`
	ClubStartedOn     *time.Time      `json:"club_started_on"`
	ClubValidUntil    *time.Time      `json:"club_valid_until"`
}

type accountResp struct {
	ID                uint64          `json:"id"`
	ClientID          *uint64         `json:"client_id,omitempty"`
	ManagedAccountID  *uint64         `json:"managed_account_id,omitempty"`
	ProgramID         uint64          `json:"program_id"`
	ClubPeriodicity   string          `json:"club_periodicity"`
	ClubMonthlyPoints int             `json:"club_monthly_points"`
	ClubFee           decimal.Decimal `json:"club_fee"`
	ClubStartedOn     *time.Time      `json:"club_started_on,omitempty"`
	ClubValidUntil    *time.Time      `json:"club_valid_until,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

func accountRespOf(a *model.Account) accountResp {
	return accountResp{
		ID:                a.ID,
		ClientID:          a.Titular.ClientID,
		ManagedAccountID:  a.Titular.ManagedAccountID,
		ProgramID:         a.ProgramID,
		ClubPeriodicity:   a.ClubPeriodicity,
		ClubMonthlyPoints: a.ClubMonthlyPoints,
		ClubFee:           a.ClubFee,
		ClubStartedOn:     a.ClubStartedOn,
		ClubValidUntil:    a.ClubValidUntil,
		CreatedAt:         a.CreatedAt,
	}
}

// Create handles POST /v1/accounts.
func (h *AccountHandler) Create(c echo.Context) error {
	var body accountBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	a := &model.Account{
		Titular:           body.toModel(),
		ProgramID:         body.ProgramID,
		ClubPeriodicity:   strings.ToUpper(strings.TrimSpace(body.ClubPeriodicity)),
		ClubMonthlyPoints: body.ClubMonthlyPoints,
		ClubFee:           body.ClubFee,
		ClubStartedOn:     body.ClubStartedOn,
		ClubValidUntil:    body.ClubValidUntil,
	}
	if a.ClubPeriodicity == "" {
		a.ClubPeriodicity = model.ClubNone
	}
	if err := a.Titular.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if a.ProgramID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "program_id is required"})
	}
	if err := h.Accounts.Create(c.Request().Context(), a); err != nil {
		if strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "titular already enrolled in this program"})
		}
		if strings.Contains(err.Error(), "1452") {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown titular or program"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create account"})
	}
	return c.JSON(http.StatusCreated, accountRespOf(a))
}

// UpdateClub handles PUT /v1/accounts/:id/club.  Only the club
// subscription metadata is mutable; titular and program are fixed at
// enrollment.
func (h *AccountHandler) UpdateClub(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body accountBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	a, err := h.Accounts.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrAccountNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	a.ClubPeriodicity = strings.ToUpper(strings.TrimSpace(body.ClubPeriodicity))
	if a.ClubPeriodicity == "" {
		a.ClubPeriodicity = model.ClubNone
	}
	a.ClubMonthlyPoints = body.ClubMonthlyPoints
	a.ClubFee = body.ClubFee
	a.ClubStartedOn = body.ClubStartedOn
	a.ClubValidUntil = body.ClubValidUntil
	if err := h.Accounts.UpdateClub(c.Request().Context(), a); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, accountRespOf(a))
}

// Get handles GET /v1/accounts/:id.
func (h *AccountHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	a, err := h.Accounts.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrAccountNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, accountRespOf(a))
}

// List handles GET /v1/accounts.  With client_id or managed_account_id
// query parameters the listing is scoped to that titular; without them
// all accounts are returned.
func (h *AccountHandler) List(c echo.Context) error {
	var (
		items []model.Account
		err   error
	)
	if c.QueryParam("client_id") != "" || c.QueryParam("managed_account_id") != "" {
		t, terr := titularFromQuery(c)
		if terr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": terr.Error()})
		}
		items, err = h.Accounts.ListByTitular(c.Request().Context(), t)
	} else {
		items, err = h.Accounts.List(c.Request().Context())
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]accountResp, 0, len(items))
	for i := range items {
		out = append(out, accountRespOf(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Delete handles DELETE /v1/accounts/:id (ADMIN only per route config).
func (h *AccountHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Accounts.Delete(c.Request().Context(), id); err != nil {
		switch err {
		case repository.ErrAccountNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "account still has movements"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// GetBalance handles GET /v1/accounts/:id/balance. The figures are
// derived from the resolved ledger account's movement log at read time.
func (h *AccountHandler) GetBalance(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	summary, err := h.Ledger.GetBalance(c.Request().Context(), id)
	if err != nil {
		return ledgerReadError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"account_id":            id,
		"points":                summary.Points,
		"total_paid":            summary.TotalPaid,
		"avg_cost_per_thousand": summary.AvgCostPerThousand,
	})
}

// GetMarketValue handles GET /v1/accounts/:id/market-value.  The
// estimate prices the shared balance at the account's own program mile
// price, which for LINKED programs differs from the base program's.
func (h *AccountHandler) GetMarketValue(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	value, err := h.Ledger.GetMarketValueEstimate(c.Request().Context(), id)
	if err != nil {
		return ledgerReadError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"account_id": id, "market_value": value})
}

// ListMovements handles GET /v1/accounts/:id/movements, returning the
// movement log of the resolved ledger account in chronological order.
func (h *AccountHandler) ListMovements(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	movements, err := h.Ledger.SharedMovements(c.Request().Context(), id)
	if err != nil {
		return ledgerReadError(c, err)
	}
	out := make([]movementResp, 0, len(movements))
	for i := range movements {
		out = append(out, movementRespOf(&movements[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ledgerReadError maps resolution failures for the derived read endpoints.
func ledgerReadError(c echo.Context, err error) error {
	switch err {
	case repository.ErrAccountNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
	case ledger.ErrLinkedAccountMissing:
		return c.JSON(http.StatusConflict, echo.Map{"error": "no account on the base program for this titular"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
}
