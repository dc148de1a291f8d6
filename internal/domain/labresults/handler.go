package labresults

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/identity"
	"github.com/mlastra-dana/PerfilabPortal/internal/platform/auth"
	"github.com/mlastra-dana/PerfilabPortal/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/labs", h.ListReports)
	api.GET("/labs/:orderId", h.GetReport)
	api.POST("/labs/:orderId/download", h.Download)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleStaff))
	writeGroup.POST("/labs", h.CreateReport)
}

type reportSummary struct {
	*Report
	Status   OrderStatus `json:"status"`
	Findings int         `json:"findings"`
}

type reportDetail struct {
	*Report
	Status   OrderStatus  `json:"status"`
	Findings []ResultItem `json:"findings"`
}

func summarize(reports []*Report) []reportSummary {
	out := make([]reportSummary, len(reports))
	for i, r := range reports {
		out[i] = reportSummary{Report: r, Status: r.Status(), Findings: len(r.Findings())}
	}
	return out
}

func (h *Handler) ListReports(c echo.Context) error {
	id := identity.New(c.QueryParam("doc"), "")
	if id.Empty() {
		return echo.NewHTTPError(http.StatusBadRequest, "doc is required")
	}
	reports, err := h.svc.ReportsFor(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, pagination.NewResponse(summarize(pagination.Slice(reports, pg)), len(reports), pg.Limit, pg.Offset))
}

func viewerFrom(c echo.Context) (*identity.Identity, error) {
	if auth.HasRole(c.Request().Context(), auth.RoleStaff) {
		return nil, nil
	}
	id := identity.New(c.QueryParam("doc"), "")
	if id.Empty() {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "doc is required")
	}
	return &id, nil
}

func (h *Handler) GetReport(c echo.Context) error {
	viewer, err := viewerFrom(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	rep, err := h.svc.ViewReport(ctx, c.Param("orderId"), viewer, auth.ActorFromContext(ctx))
	if err != nil {
		return reportError(err)
	}
	return c.JSON(http.StatusOK, reportDetail{Report: rep, Status: rep.Status(), Findings: h.svc.Findings(rep)})
}

func (h *Handler) Download(c echo.Context) error {
	viewer, err := viewerFrom(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	rep, err := h.svc.RecordDownload(ctx, c.Param("orderId"), viewer, auth.ActorFromContext(ctx))
	if err != nil {
		return reportError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"order_id":     rep.OrderID,
		"pdf_location": rep.PDFLocation,
	})
}

func (h *Handler) CreateReport(c echo.Context) error {
	var rep Report
	if err := c.Bind(&rep); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddReport(c.Request().Context(), &rep); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, reportDetail{Report: &rep, Status: rep.Status(), Findings: rep.Findings()})
}

func reportError(err error) error {
	if errors.Is(err, ErrReportNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "lab report not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
