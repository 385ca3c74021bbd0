package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aerotrip/miles-backoffice/internal/model"
	"github.com/aerotrip/miles-backoffice/internal/repository"
)

// ClientHandler exposes the titular directories: agency clients and
// company-managed accounts.
type ClientHandler struct {
	Clients *repository.ClientRepo
}

// NewClientHandler constructs a ClientHandler and panics on a nil repository.
func NewClientHandler(clients *repository.ClientRepo) *ClientHandler {
	if clients == nil {
		panic("nil repository passed to NewClientHandler")
	}
	return &ClientHandler{Clients: clients}
}

type clientResp struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func clientRespOf(c *model.Client) clientResp {
	return clientResp{ID: c.ID, Name: c.Name, Email: c.Email, IsActive: c.IsActive, CreatedAt: c.CreatedAt}
}

type managedAccountResp struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Notes     string    `json:"notes"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func managedAccountRespOf(m *model.ManagedAccount) managedAccountResp {
	return managedAccountResp{ID: m.ID, Name: m.Name, Notes: m.Notes, IsActive: m.IsActive, CreatedAt: m.CreatedAt}
}

// CreateClient handles POST /v1/clients.
func (h *ClientHandler) CreateClient(c echo.Context) error {
	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	client := &model.Client{
		Name:     strings.TrimSpace(body.Name),
		Email:    strings.ToLower(strings.TrimSpace(body.Email)),
		IsActive: true,
	}
	if client.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if err := h.Clients.CreateClient(c.Request().Context(), client); err != nil {
		if strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create client"})
	}
	return c.JSON(http.StatusCreated, clientRespOf(client))
}

// GetClient handles GET /v1/clients/:id.
func (h *ClientHandler) GetClient(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	client, err := h.Clients.GetClient(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrClientNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, clientRespOf(client))
}

// ListClients handles GET /v1/clients.
func (h *ClientHandler) ListClients(c echo.Context) error {
	items, err := h.Clients.ListClients(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]clientResp, 0, len(items))
	for i := range items {
		out = append(out, clientRespOf(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// CreateManagedAccount handles POST /v1/managed-accounts.
func (h *ClientHandler) CreateManagedAccount(c echo.Context) error {
	var body struct {
		Name  string `json:"name"`
		Notes string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	m := &model.ManagedAccount{
		Name:     strings.TrimSpace(body.Name),
		Notes:    strings.TrimSpace(body.Notes),
		IsActive: true,
	}
	if m.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if err := h.Clients.CreateManagedAccount(c.Request().Context(), m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create managed account"})
	}
	return c.JSON(http.StatusCreated, managedAccountRespOf(m))
}

// GetManagedAccount handles GET /v1/managed-accounts/:id.
func (h *ClientHandler) GetManagedAccount(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	m, err := h.Clients.GetManagedAccount(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrManagedAccountNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "managed account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, managedAccountRespOf(m))
}

// ListManagedAccounts handles GET /v1/managed-accounts.
func (h *ClientHandler) ListManagedAccounts(c echo.Context) error {
	items, err := h.Clients.ListManagedAccounts(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]managedAccountResp, 0, len(items))
	for i := range items {
		out = append(out, managedAccountRespOf(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
