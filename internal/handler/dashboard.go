package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/aerotrip/miles-backoffice/internal/repository"
	"github.com/aerotrip/miles-backoffice/internal/service"
)

// DashboardHandler aggregates a titular's position across programs:
// derived points, weighted average cost and market value per account,
// plus portfolio totals.  This is a display read and sits behind the
// Redis response cache.
type DashboardHandler struct {
	Accounts *repository.AccountRepo
	Programs *repository.ProgramRepo
	Ledger   *service.LedgerService
}

// NewDashboardHandler constructs a DashboardHandler and panics on nil dependencies.
func NewDashboardHandler(accounts *repository.AccountRepo, programs *repository.ProgramRepo, ledgerSvc *service.LedgerService) *DashboardHandler {
	if accounts == nil || programs == nil || ledgerSvc == nil {
		panic("nil dependency passed to NewDashboardHandler")
	}
	return &DashboardHandler{Accounts: accounts, Programs: programs, Ledger: ledgerSvc}
}

type dashboardRow struct {
	AccountID          uint64          `json:"account_id"`
	ProgramID          uint64          `json:"program_id"`
	ProgramName        string          `json:"program_name"`
	ProgramKind        string          `json:"program_kind"`
	Points             int64           `json:"points"`
	TotalPaid          decimal.Decimal `json:"total_paid"`
	AvgCostPerThousand decimal.Decimal `json:"avg_cost_per_thousand"`
	MarketValue        decimal.Decimal `json:"market_value"`
}

// Get handles GET /v1/dashboard?client_id=|managed_account_id=.
// LINKED accounts show the shared balance of their base program sibling
// priced at their own program's mile value, so the totals intentionally
// count a shared pool once per program that can spend it.
func (h *DashboardHandler) Get(c echo.Context) error {
	t, err := titularFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	accounts, err := h.Accounts.ListByTitular(c.Request().Context(), t)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	rows := make([]dashboardRow, 0, len(accounts))
	totalPoints := int64(0)
	totalPaid := decimal.Zero
	totalMarketValue := decimal.Zero
	for i := range accounts {
		a := &accounts[i]
		program, err := h.Programs.GetByID(c.Request().Context(), a.ProgramID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		summary, err := h.Ledger.GetBalance(c.Request().Context(), a.ID)
		if err != nil {
			// An unprovisioned linked account renders as an empty row
			// rather than failing the whole dashboard.
			rows = append(rows, dashboardRow{
				AccountID:   a.ID,
				ProgramID:   program.ID,
				ProgramName: program.Name,
				ProgramKind: program.Kind,
			})
			continue
		}
		marketValue, err := h.Ledger.GetMarketValueEstimate(c.Request().Context(), a.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		rows = append(rows, dashboardRow{
			AccountID:          a.ID,
			ProgramID:          program.ID,
			ProgramName:        program.Name,
			ProgramKind:        program.Kind,
			Points:             summary.Points,
			TotalPaid:          summary.TotalPaid,
			AvgCostPerThousand: summary.AvgCostPerThousand,
			MarketValue:        marketValue,
		})
		totalPoints += summary.Points
		totalPaid = totalPaid.Add(summary.TotalPaid)
		totalMarketValue = totalMarketValue.Add(marketValue)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"accounts": rows,
		"totals": echo.Map{
			"points":       totalPoints,
			"total_paid":   totalPaid,
			"market_value": totalMarketValue,
		},
	})
}
