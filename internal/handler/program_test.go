package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/aerotrip/miles-backoffice/internal/repository"
)

func TestProgramGetReturnsStoredFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery("FROM programs WHERE id").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "kind", "base_program_id", "average_mile_price", "cpf_limit"}).
			AddRow(7, "Smiles", "PRINCIPAL", nil, "30.00", 25))

	h := NewProgramHandler(repository.NewProgramRepo(db))
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/programs/7", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/programs/:id")
	c.SetParamNames("id")
	c.SetParamValues("7")

	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, float64(7), body["id"])
	require.Equal(t, "Smiles", body["name"])
	require.Equal(t, "PRINCIPAL", body["kind"])
	require.Equal(t, float64(25), body["cpf_limit"])
	require.Contains(t, body, "average_mile_price")
	// Programs expose only their ledger configuration.
	require.NotContains(t, body, "created_at")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProgramGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery("FROM programs WHERE id").
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "kind", "base_program_id", "average_mile_price", "cpf_limit"}))

	h := NewProgramHandler(repository.NewProgramRepo(db))
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/programs/9", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/programs/:id")
	c.SetParamNames("id")
	c.SetParamValues("9")

	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
