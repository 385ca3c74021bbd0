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

// RedemptionHandler exposes redemption (emission) CRUD.  Saves run the
// whole pipeline in one transaction: CPF validation against the
// program-wide passenger set, passenger persistence and the ledger
// projection that debits the points.
type RedemptionHandler struct {
	Redemptions *repository.RedemptionRepo
	Service     *service.RedemptionService
}

// NewRedemptionHandler constructs a RedemptionHandler and panics on nil dependencies.
func NewRedemptionHandler(redemptions *repository.RedemptionRepo, svc *service.RedemptionService) *RedemptionHandler {
	if redemptions == nil || svc == nil {
		panic("nil dependency passed to NewRedemptionHandler")
	}
	return &RedemptionHandler{Redemptions: redemptions, Service: svc}
}

type passengerBody struct {
	FullName string `json:"full_name"`
	CPF      string `json:"cpf"`
}

type redemptionBody struct {
	titularRef
	ProgramID      uint64          `json:"program_id"`
	PointsUsed     int64           `json:"points_used"`
	Fees           decimal.Decimal `json:"fees"`
	CashPaid       decimal.Decimal `json:"cash_paid"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
	DepartureDate  *time.Time      `json:"departure_date"`
	Passengers     []passengerBody `json:"passengers"`
}

type passengerResp struct {
	ID       uint64 `json:"id"`
	FullName string `json:"full_name"`
	CPF      string `json:"cpf"`
}

type redemptionResp struct {
	ID               uint64          `json:"id"`
	ClientID         *uint64         `json:"client_id,omitempty"`
	ManagedAccountID *uint64         `json:"managed_account_id,omitempty"`
	ProgramID        uint64          `json:"program_id"`
	PointsUsed       int64           `json:"points_used"`
	Fees             decimal.Decimal `json:"fees"`
	CashPaid         decimal.Decimal `json:"cash_paid"`
	ReferencePrice   decimal.Decimal `json:"reference_price"`
	DepartureDate    *time.Time      `json:"departure_date,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

func redemptionRespOf(r *model.Redemption) redemptionResp {
	return redemptionResp{
		ID:               r.ID,
		ClientID:         r.Titular.ClientID,
		ManagedAccountID: r.Titular.ManagedAccountID,
		ProgramID:        r.ProgramID,
		PointsUsed:       r.PointsUsed,
		Fees:             r.Fees,
		CashPaid:         r.CashPaid,
		ReferencePrice:   r.ReferencePrice,
		DepartureDate:    r.DepartureDate,
		CreatedAt:        r.CreatedAt,
	}
}

// saveResp augments the stored redemption with the figures the save
// computed: how many new CPFs were consumed and the cash economy of
// paying with points.
type saveResp struct {
	redemptionResp
	NewCPFs    int             `json:"new_cpfs"`
	Available  *int            `json:"cpf_slots_available,omitempty"`
	PointsCost decimal.Decimal `json:"points_cost"`
	Economy    decimal.Decimal `json:"economy"`
}

func (h *RedemptionHandler) bindRedemption(c echo.Context, id uint64) (*model.Redemption, []model.Passenger, error) {
	var body redemptionBody
	if err := c.Bind(&body); err != nil {
		return nil, nil, err
	}
	r := &model.Redemption{
		ID:             id,
		Titular:        body.toModel(),
		ProgramID:      body.ProgramID,
		PointsUsed:     body.PointsUsed,
		Fees:           body.Fees,
		CashPaid:       body.CashPaid,
		ReferencePrice: body.ReferencePrice,
		DepartureDate:  body.DepartureDate,
	}
	passengers := make([]model.Passenger, 0, len(body.Passengers))
	for _, p := range body.Passengers {
		passengers = append(passengers, model.Passenger{
			FullName: strings.TrimSpace(p.FullName),
			CPF:      p.CPF,
		})
	}
	return r, passengers, nil
}

// Create handles POST /v1/redemptions.
func (h *RedemptionHandler) Create(c echo.Context) error {
	r, passengers, err := h.bindRedemption(c, 0)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	result, err := h.Service.Save(c.Request().Context(), r, passengers)
	if err != nil {
		return redemptionError(c, err)
	}
	return c.JSON(http.StatusCreated, saveRespOf(result))
}

// Update handles PUT /v1/redemptions/:id.  The CPF count excludes the
// redemption's own previous passengers, so re-saving is idempotent.
func (h *RedemptionHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	r, passengers, err := h.bindRedemption(c, id)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	result, err := h.Service.Save(c.Request().Context(), r, passengers)
	if err != nil {
		return redemptionError(c, err)
	}
	return c.JSON(http.StatusOK, saveRespOf(result))
}

func saveRespOf(result *service.SaveResult) saveResp {
	return saveResp{
		redemptionResp: redemptionRespOf(result.Redemption),
		NewCPFs:        result.NewCPFs,
		Available:      result.Available,
		PointsCost:     result.PointsCost,
		Economy:        result.Economy,
	}
}

// Get handles GET /v1/redemptions/:id, returning the redemption with
// its passenger list.
func (h *RedemptionHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	r, err := h.Redemptions.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrRedemptionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "redemption not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	passengers, err := h.Redemptions.ListPassengers(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]passengerResp, 0, len(passengers))
	for _, p := range passengers {
		out = append(out, passengerResp{ID: p.ID, FullName: p.FullName, CPF: p.CPF})
	}
	resp := echo.Map{"redemption": redemptionRespOf(r), "passengers": out}
	return c.JSON(http.StatusOK, resp)
}

// List handles GET /v1/redemptions?client_id=|managed_account_id=.
func (h *RedemptionHandler) List(c echo.Context) error {
	t, err := titularFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	items, err := h.Redemptions.ListByTitular(c.Request().Context(), t)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]redemptionResp, 0, len(items))
	for i := range items {
		out = append(out, redemptionRespOf(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Delete handles DELETE /v1/redemptions/:id (ADMIN only per route
// config).  The projected movement is removed in the same transaction,
// returning the points to the titular's balance.
func (h *RedemptionHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Service.Delete(c.Request().Context(), id); err != nil {
		if err == repository.ErrRedemptionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "redemption not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Project handles POST /v1/redemptions/:id/project, re-deriving the
// ledger movement from the stored redemption.  Saves already project,
// so this is a repair endpoint for redemptions imported or edited out
// of band.
func (h *RedemptionHandler) Project(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Service.Project(c.Request().Context(), id); err != nil {
		return redemptionError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// redemptionError maps save/projection failures to HTTP responses.
func redemptionError(c echo.Context, err error) error {
	if limit, ok := err.(*ledger.CpfLimitExceededError); ok {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "cpf limit exceeded for this program",
			"new_cpfs":  limit.NewCount,
			"available": limit.Available,
		})
	}
	switch err {
	case repository.ErrRedemptionNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "redemption not found"})
	case repository.ErrProgramNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "program not found"})
	case repository.ErrAccountNotFound:
		return c.JSON(http.StatusConflict, echo.Map{"error": "titular has no account in this program"})
	case ledger.ErrLinkedAccountMissing:
		return c.JSON(http.StatusConflict, echo.Map{"error": "no account on the base program for this titular"})
	case model.ErrInvalidTitular:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save redemption"})
}
