package results

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
	api.GET("/tenants/:tenant/documents", h.ListDocuments)
	api.GET("/documents/:id", h.GetDocument)
	api.POST("/documents/:id/download", h.Download)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleStaff))
	writeGroup.POST("/documents", h.CreateDocument)
}

type documentPage struct {
	Tenant         identity.Tenant   `json:"tenant"`
	Profile        *identity.Profile `json:"profile,omitempty"`
	ServiceOptions []string          `json:"service_options"`
	*pagination.Response
}

// ListDocuments resolves ?doc= (and ?policy= for insurers) against a tenant.
func (h *Handler) ListDocuments(c echo.Context) error {
	tenant, err := identity.ParseTenant(c.Param("tenant"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	id := identity.New(c.QueryParam("doc"), c.QueryParam("policy"))
	ctx := c.Request().Context()

	_, profile := h.svc.ResolveProfile(tenant, id)
	// Service options are computed over the unfiltered set.
	owned, err := h.svc.FindDocuments(ctx, tenant, id, Filters{})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	docs := Filter(owned, Filters{
		Query:   c.QueryParam("q"),
		Kind:    c.QueryParam("kind"),
		Service: c.QueryParam("service"),
		From:    c.QueryParam("from"),
		To:      c.QueryParam("to"),
	})

	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, documentPage{
		Tenant:         tenant,
		Profile:        profile,
		ServiceOptions: ServiceOptions(owned),
		Response:       pagination.NewResponse(pagination.Slice(docs, pg), len(docs), pg.Limit, pg.Offset),
	})
}

// viewerFrom returns nil for staff, who may open any document. Patients must
// name themselves with ?doc= (and ?policy=).
func viewerFrom(c echo.Context) (*identity.Identity, error) {
	if auth.HasRole(c.Request().Context(), auth.RoleStaff) {
		return nil, nil
	}
	id := identity.New(c.QueryParam("doc"), c.QueryParam("policy"))
	if id.Empty() {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "doc is required")
	}
	return &id, nil
}

func (h *Handler) GetDocument(c echo.Context) error {
	viewer, err := viewerFrom(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	d, err := h.svc.ViewDocument(ctx, c.Param("id"), viewer, auth.ActorFromContext(ctx))
	if err != nil {
		return documentError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Download(c echo.Context) error {
	viewer, err := viewerFrom(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	d, err := h.svc.RecordDownload(ctx, c.Param("id"), viewer, auth.ActorFromContext(ctx))
	if err != nil {
		return documentError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"id":            d.ID,
		"file_name":     d.FileName,
		"file_location": d.FileLocation,
	})
}

type createDocumentRequest struct {
	Tenant        identity.Tenant `json:"tenant"`
	OwnerID       string          `json:"owner_id"`
	OwnerDocument string          `json:"owner_document"`
	PolicyNumber  string          `json:"policy_number"`
	Category      string          `json:"category"`
	Service       string          `json:"service"`
	Title         string          `json:"title"`
	Date          string          `json:"date"`
	Kind          Kind            `json:"kind"`
	FileName      string          `json:"file_name"`
	FileLocation  string          `json:"file_location"`
	Site          string          `json:"site"`
	Tags          []string        `json:"tags"`
}

func (h *Handler) CreateDocument(c echo.Context) error {
	var req createDocumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d := &Document{
		Tenant:        req.Tenant,
		OwnerID:       req.OwnerID,
		OwnerDocument: req.OwnerDocument,
		PolicyNumber:  req.PolicyNumber,
		Category:      req.Category,
		Service:       req.Service,
		Title:         req.Title,
		Date:          req.Date,
		Kind:          req.Kind,
		FileName:      req.FileName,
		FileLocation:  req.FileLocation,
		Site:          req.Site,
		Tags:          req.Tags,
	}
	if d.Tenant == "" {
		d.Tenant = identity.Laboratorio
	}
	ctx := c.Request().Context()
	if err := h.svc.AddDocument(ctx, d, auth.ActorFromContext(ctx)); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func documentError(err error) error {
	if errors.Is(err, ErrDocumentNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
