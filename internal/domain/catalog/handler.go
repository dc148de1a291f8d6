package catalog

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	catalog *Catalog
}

func NewHandler(c *Catalog) *Handler {
	return &Handler{catalog: c}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/catalog/entries", h.ListEntries)
	api.GET("/catalog/entries/:id", h.GetEntry)
	api.GET("/catalog/panels", h.ListPanels)
	api.GET("/catalog/panels/:id", h.GetPanel)
}

// entryView adds the rendered reference text to an entry.
type entryView struct {
	Entry
	ReferenceText string `json:"reference_text"`
}

func newEntryView(e Entry) entryView {
	return entryView{Entry: e, ReferenceText: e.ReferenceText()}
}

func (h *Handler) ListEntries(c echo.Context) error {
	category := c.QueryParam("category")
	entries := h.catalog.Entries()
	out := make([]entryView, 0, len(entries))
	for _, e := range entries {
		if category != "" && e.Category != category {
			continue
		}
		out = append(out, newEntryView(e))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetEntry(c echo.Context) error {
	e, ok := h.catalog.Entry(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "catalog entry not found")
	}
	return c.JSON(http.StatusOK, newEntryView(e))
}

func (h *Handler) ListPanels(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.Panels())
}

func (h *Handler) GetPanel(c echo.Context) error {
	p, ok := h.catalog.Panel(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "panel not found")
	}
	params := make([]entryView, 0, len(p.ParameterIDs))
	for _, e := range h.catalog.PanelEntries(p.ID) {
		params = append(params, newEntryView(e))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"panel":      p,
		"parameters": params,
	})
}
