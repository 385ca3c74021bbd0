package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/aerotrip/miles-backoffice/internal/model"
	"github.com/aerotrip/miles-backoffice/internal/repository"
)

// ProgramHandler exposes CRUD over loyalty programs.  Programs carry the
// structural configuration of the ledger (PRINCIPAL vs LINKED, CPF
// limits, reference mile price), so writes validate the model before
// touching the database.
type ProgramHandler struct {
	Programs *repository.ProgramRepo
}

// NewProgramHandler constructs a ProgramHandler and panics on a nil repository.
func NewProgramHandler(programs *repository.ProgramRepo) *ProgramHandler {
	if programs == nil {
		panic("nil repository passed to NewProgramHandler")
	}
	return &ProgramHandler{Programs: programs}
}

type programBody struct {
	Name             string          `json:"name"`
	Kind             string          `json:"kind"`
	BaseProgramID    *uint64         `json:"base_program_id"`
	AverageMilePrice decimal.Decimal `json:"average_mile_price"`
	CPFLimit         *uint           `json:"cpf_limit"`
}

type programResp struct {
	ID               uint64          `json:"id"`
	Name             string          `json:"name"`
	Kind             string          `json:"kind"`
	BaseProgramID    *uint64         `json:"base_program_id,omitempty"`
	AverageMilePrice decimal.Decimal `json:"average_mile_price"`
	CPFLimit         *uint           `json:"cpf_limit,omitempty"`
}

func programRespOf(p *model.Program) programResp {
	return programResp{
		ID:               p.ID,
		Name:             p.Name,
		Kind:             p.Kind,
		BaseProgramID:    p.BaseProgramID,
		AverageMilePrice: p.AverageMilePrice,
		CPFLimit:         p.CPFLimit,
	}
}

// Create handles POST /v1/programs.
func (h *ProgramHandler) Create(c echo.Context) error {
	var body programBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	p := &model.Program{
		Name:             strings.TrimSpace(body.Name),
		Kind:             strings.ToUpper(strings.TrimSpace(body.Kind)),
		BaseProgramID:    body.BaseProgramID,
		AverageMilePrice: body.AverageMilePrice,
		CPFLimit:         body.CPFLimit,
	}
	if p.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if err := p.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Programs.Create(c.Request().Context(), p); err != nil {
		return programWriteError(c, err)
	}
	return c.JSON(http.StatusCreated, programRespOf(p))
}

// Update handles PUT /v1/programs/:id.
func (h *ProgramHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body programBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	p := &model.Program{
		ID:               id,
		Name:             strings.TrimSpace(body.Name),
		Kind:             strings.ToUpper(strings.TrimSpace(body.Kind)),
		BaseProgramID:    body.BaseProgramID,
		AverageMilePrice: body.AverageMilePrice,
		CPFLimit:         body.CPFLimit,
	}
	if p.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if err := p.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Programs.Update(c.Request().Context(), p); err != nil {
		return programWriteError(c, err)
	}
	updated, err := h.Programs.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, programRespOf(updated))
}

// Get handles GET /v1/programs/:id.
func (h *ProgramHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	p, err := h.Programs.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrProgramNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "program not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, programRespOf(p))
}

// List handles GET /v1/programs.
func (h *ProgramHandler) List(c echo.Context) error {
	items, err := h.Programs.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]programResp, 0, len(items))
	for i := range items {
		out = append(out, programRespOf(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Delete handles DELETE /v1/programs/:id (ADMIN only per route config).
func (h *ProgramHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Programs.Delete(c.Request().Context(), id); err != nil {
		switch err {
		case repository.ErrProgramNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "program not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "program is still referenced"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// programWriteError translates repository errors for create/update paths.
func programWriteError(c echo.Context, err error) error {
	switch err {
	case repository.ErrProgramNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "program not found"})
	case repository.ErrBaseNotPrincipal:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "base program must be a PRINCIPAL program"})
	}
	if strings.Contains(err.Error(), "1062") {
		return c.JSON(http.StatusConflict, echo.Map{"error": "program name already exists"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save program"})
}
