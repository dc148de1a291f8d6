package audit

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mlastra-dana/PerfilabPortal/internal/platform/auth"
	"github.com/mlastra-dana/PerfilabPortal/pkg/pagination"
)

type Handler struct {
	recorder *Recorder
}

func NewHandler(r *Recorder) *Handler {
	return &Handler{recorder: r}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/audit/events", h.ListEvents)
}

func (h *Handler) ListEvents(c echo.Context) error {
	t := EventType(c.QueryParam("type"))
	if t != "" && !t.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event type: "+string(t))
	}
	pg := pagination.FromContext(c)
	events := h.recorder.Filter(t)
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Slice(events, pg), len(events), pg.Limit, pg.Offset))
}
