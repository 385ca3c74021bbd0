package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/aerotrip/miles-backoffice/internal/model"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// JWTAuth stores the claim as whatever type the JSON decoder produced, so
// several representations are accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses the named path parameter as an unsigned integer.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// titularRef is the JSON shape used to identify an owner in request
// bodies: exactly one of client_id or managed_account_id.
type titularRef struct {
	ClientID         *uint64 `json:"client_id"`
	ManagedAccountID *uint64 `json:"managed_account_id"`
}

func (t titularRef) toModel() model.Titular {
	return model.Titular{ClientID: t.ClientID, ManagedAccountID: t.ManagedAccountID}
}

func titularRefOf(t model.Titular) titularRef {
	return titularRef{ClientID: t.ClientID, ManagedAccountID: t.ManagedAccountID}
}

// titularFromQuery reads client_id / managed_account_id query parameters.
// Exactly one must be present; the returned error carries no detail beyond
// the exactly-one rule because handlers translate it to a 400 anyway.
func titularFromQuery(c echo.Context) (model.Titular, error) {
	var t model.Titular
	if s := c.QueryParam("client_id"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return t, errors.New("invalid client_id")
		}
		t.ClientID = &n
	}
	if s := c.QueryParam("managed_account_id"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return t, errors.New("invalid managed_account_id")
		}
		t.ManagedAccountID = &n
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}
