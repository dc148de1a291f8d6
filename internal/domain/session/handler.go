package session

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mlastra-dana/PerfilabPortal/internal/platform/auth"
)

type Handler struct {
	mgr *Manager
}

func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/session/role", h.SetRole)
	api.POST("/access", h.StartAccess)
	api.GET("/session/:id", h.GetSession)
	api.DELETE("/session/:id", h.EndSession)
}

type setRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) SetRole(c echo.Context) error {
	var req setRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := auth.ActorFromContext(c.Request().Context())
	prev, err := h.mgr.SetRole(actor, req.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{
		"actor":    actor,
		"previous": prev,
		"role":     req.Role,
	})
}

type accessRequest struct {
	DocumentNumber string `json:"document_number"`
}

func (h *Handler) StartAccess(c echo.Context) error {
	var req accessRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s, err := h.mgr.StartPatientSession(c.Request().Context(), req.DocumentNumber)
	if err != nil {
		if errors.Is(err, ErrNoResults) {
			return echo.NewHTTPError(http.StatusNotFound, NoResultsMessage)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *Handler) GetSession(c echo.Context) error {
	s, ok := h.mgr.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) EndSession(c echo.Context) error {
	if err := h.mgr.End(c.Param("id")); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
