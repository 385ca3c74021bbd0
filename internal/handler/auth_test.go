package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestMeNormalizesSubjectClaim(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	// The JWT middleware stores JSON number claims as float64.
	c.Set("user_id", float64(42))
	c.Set("role", "OPERATOR")

	h := &AuthHandler{}
	require.NoError(t, h.Me(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, float64(42), body["user_id"])
	require.Equal(t, "OPERATOR", body["role"])
}

func TestMeRejectsMissingSubject(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := &AuthHandler{}
	require.NoError(t, h.Me(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
