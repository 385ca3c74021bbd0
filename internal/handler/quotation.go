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
)

// QuotationHandler exposes flight quotation CRUD.  The derived prices
// (installment, cash, savings) are recomputed by the repository on
// every save, so clients never send them.
type QuotationHandler struct {
	Quotations *repository.QuotationRepo
}

// NewQuotationHandler constructs a QuotationHandler and panics on a nil repository.
func NewQuotationHandler(quotations *repository.QuotationRepo) *QuotationHandler {
	if quotations == nil {
		panic("nil repository passed to NewQuotationHandler")
	}
	return &QuotationHandler{Quotations: quotations}
}

type quotationBody struct {
	titularRef
	ProgramID          *uint64         `json:"program_id"`
	Airline            string          `json:"airline"`
	Origin             string          `json:"origin"`
	Destination        string          `json:"destination"`
	TravelClass        string          `json:"travel_class"`
	Passengers         uint            `json:"passengers"`
	DepartureAt        time.Time       `json:"departure_at"`
	ReturnAt           *time.Time      `json:"return_at"`
	Miles              int64           `json:"miles"`
	MarketMileValue    decimal.Decimal `json:"market_mile_value"`
	Fees               decimal.Decimal `json:"fees"`
	Installments       int             `json:"installments"`
	InstallmentFactor  decimal.Decimal `json:"installment_factor"`
	CashDiscountFactor decimal.Decimal `json:"cash_discount_factor"`
	ReferencePrice     decimal.Decimal `json:"reference_price"`
	Status             string          `json:"status"`
	ValidUntil         *time.Time      `json:"valid_until"`
}

type quotationResp struct {
	ID                 uint64          `json:"id"`
	ClientID           *uint64         `json:"client_id,omitempty"`
	ManagedAccountID   *uint64         `json:"managed_account_id,omitempty"`
	ProgramID          *uint64         `json:"program_id,omitempty"`
	Airline            string          `json:"airline"`
	Origin             string          `json:"origin"`
	Destination        string          `json:"destination"`
	TravelClass        string          `json:"travel_class"`
	Passengers         uint            `json:"passengers"`
	DepartureAt        time.Time       `json:"departure_at"`
	ReturnAt           *time.Time      `json:"return_at,omitempty"`
	Miles              int64           `json:"miles"`
	MarketMileValue    decimal.Decimal `json:"market_mile_value"`
	Fees               decimal.Decimal `json:"fees"`
	Installments       int             `json:"installments"`
	InstallmentFactor  decimal.Decimal `json:"installment_factor"`
	CashDiscountFactor decimal.Decimal `json:"cash_discount_factor"`
	ReferencePrice     decimal.Decimal `json:"reference_price"`
	InstallmentPrice   decimal.Decimal `json:"installment_price"`
	PerInstallment     decimal.Decimal `json:"per_installment"`
	CashPrice          decimal.Decimal `json:"cash_price"`
	Savings            decimal.Decimal `json:"savings"`
	Status             string          `json:"status"`
	ValidUntil         *time.Time      `json:"valid_until,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

func quotationRespOf(q *model.Quotation) quotationResp {
	resp := quotationResp{
		ID:                 q.ID,
		ClientID:           q.Titular.ClientID,
		ManagedAccountID:   q.Titular.ManagedAccountID,
		ProgramID:          q.ProgramID,
		Airline:            q.Airline,
		Origin:             q.Origin,
		Destination:        q.Destination,
		TravelClass:        q.TravelClass,
		Passengers:         q.Passengers,
		DepartureAt:        q.DepartureAt,
		ReturnAt:           q.ReturnAt,
		Miles:              q.Miles,
		MarketMileValue:    q.MarketMileValue,
		Fees:               q.Fees,
		Installments:       q.Installments,
		InstallmentFactor:  q.InstallmentFactor,
		CashDiscountFactor: q.CashDiscountFactor,
		ReferencePrice:     q.ReferencePrice,
		InstallmentPrice:   q.InstallmentPrice,
		CashPrice:          q.CashPrice,
		Savings:            q.Savings,
		Status:             q.Status,
		ValidUntil:         q.ValidUntil,
		CreatedAt:          q.CreatedAt,
	}
	if q.Installments > 0 {
		resp.PerInstallment = q.InstallmentPrice.
			DivRound(decimal.NewFromInt(int64(q.Installments)), 2)
	}
	return resp
}

func (h *QuotationHandler) bindQuotation(c echo.Context, id uint64) (*model.Quotation, error) {
	var body quotationBody
	if err := c.Bind(&body); err != nil {
		return nil, err
	}
	status := strings.ToUpper(strings.TrimSpace(body.Status))
	if status == "" {
		status = model.QuotePending
	}
	return &model.Quotation{
		ID:                 id,
		Titular:            body.toModel(),
		ProgramID:          body.ProgramID,
		Airline:            strings.TrimSpace(body.Airline),
		Origin:             strings.ToUpper(strings.TrimSpace(body.Origin)),
		Destination:        strings.ToUpper(strings.TrimSpace(body.Destination)),
		TravelClass:        strings.TrimSpace(body.TravelClass),
		Passengers:         body.Passengers,
		DepartureAt:        body.DepartureAt,
		ReturnAt:           body.ReturnAt,
		Miles:              body.Miles,
		MarketMileValue:    body.MarketMileValue,
		Fees:               body.Fees,
		Installments:       body.Installments,
		InstallmentFactor:  body.InstallmentFactor,
		CashDiscountFactor: body.CashDiscountFactor,
		ReferencePrice:     body.ReferencePrice,
		Status:             status,
		ValidUntil:         body.ValidUntil,
	}, nil
}

// Create handles POST /v1/quotations.
func (h *QuotationHandler) Create(c echo.Context) error {
	q, err := h.bindQuotation(c, 0)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := q.Titular.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Quotations.Create(c.Request().Context(), q); err != nil {
		return quotationWriteError(c, err)
	}
	return c.JSON(http.StatusCreated, quotationRespOf(q))
}

// Update handles PUT /v1/quotations/:id.
func (h *QuotationHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	q, err := h.bindQuotation(c, id)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := q.Titular.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Quotations.Update(c.Request().Context(), q); err != nil {
		return quotationWriteError(c, err)
	}
	updated, err := h.Quotations.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, quotationRespOf(updated))
}

// Get handles GET /v1/quotations/:id.
func (h *QuotationHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	q, err := h.Quotations.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrQuotationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "quotation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, quotationRespOf(q))
}

// List handles GET /v1/quotations?client_id=|managed_account_id=.
func (h *QuotationHandler) List(c echo.Context) error {
	t, err := titularFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	items, err := h.Quotations.ListByTitular(c.Request().Context(), t)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]quotationResp, 0, len(items))
	for i := range items {
		out = append(out, quotationRespOf(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Delete handles DELETE /v1/quotations/:id (ADMIN only per route config).
func (h *QuotationHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Quotations.Delete(c.Request().Context(), id); err != nil {
		if err == repository.ErrQuotationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "quotation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// quotationWriteError translates save failures.
func quotationWriteError(c echo.Context, err error) error {
	switch err {
	case repository.ErrQuotationNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "quotation not found"})
	case ledger.ErrInvalidInstallments:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if strings.Contains(err.Error(), "1452") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown titular or program"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save quotation"})
}
