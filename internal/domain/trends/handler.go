package trends

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/identity"
)

type Handler struct {
	store    *Store
	profiles *identity.Directory
}

func NewHandler(store *Store, profiles *identity.Directory) *Handler {
	return &Handler{store: store, profiles: profiles}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/trends", h.ListParameters)
	api.GET("/trends/:parameterId", h.GetTrend)
}

// identityKey resolves ?doc= to a lab patient id, falling back to the
// document number itself.
func (h *Handler) identityKey(c echo.Context) (string, error) {
	id := identity.New(c.QueryParam("doc"), "")
	if id.Empty() {
		return "", echo.NewHTTPError(http.StatusBadRequest, "doc is required")
	}
	if resolved, _, ok := h.profiles.Resolve(identity.Laboratorio, id); ok && resolved.InternalID != "" {
		return resolved.InternalID, nil
	}
	return id.Key(), nil
}

func (h *Handler) ListParameters(c echo.Context) error {
	key, err := h.identityKey(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"parameters": h.store.Parameters(key),
	})
}

func (h *Handler) GetTrend(c echo.Context) error {
	key, err := h.identityKey(c)
	if err != nil {
		return err
	}
	s, ok := h.store.GetTrend(key, c.Param("parameterId"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no trend for parameter")
	}
	return c.JSON(http.StatusOK, s)
}
