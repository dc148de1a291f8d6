package sharetoken

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/audit"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/identity"
	"github.com/mlastra-dana/PerfilabPortal/internal/domain/results"
	"github.com/mlastra-dana/PerfilabPortal/internal/platform/auth"
)

// Documents is the part of the results service share links need.
type Documents interface {
	GetDocument(ctx context.Context, id string) (*results.Document, error)
	CanAccess(d *results.Document, viewer identity.Identity) bool
}

type Handler struct {
	validator *Validator
	issuer    *Issuer
	docs      Documents
	audit     *audit.Recorder
}

func NewHandler(v *Validator, issuer *Issuer, docs Documents, recorder *audit.Recorder) *Handler {
	return &Handler{validator: v, issuer: issuer, docs: docs, audit: recorder}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/documents/:id/share", h.Share)
}

// RegisterLinkRoutes mounts the public link entry point.
func (h *Handler) RegisterLinkRoutes(g *echo.Group) {
	g.GET("/r/:token", h.Open)
}

type openResponse struct {
	Result
	Document *results.Document `json:"document,omitempty"`
}

// Open validates a link token. Only a valid token is recorded as an entry.
func (h *Handler) Open(c echo.Context) error {
	token := c.Param("token")
	ctx := c.Request().Context()
	res := h.validator.Validate(ctx, token)
	switch {
	case res.Valid:
	case res.Reason == ReasonExpired:
		return c.JSON(http.StatusGone, res)
	default:
		return c.JSON(http.StatusNotFound, res)
	}

	ref := TokenRef(token)
	var docID string
	if h.issuer != nil {
		if claims, err := h.issuer.parse(token); err == nil {
			ref = "enlace " + claims.ID
			docID = claims.Subject
		}
	}
	h.audit.Record(audit.PageView, auth.DefaultActor, "Ingreso por token "+ref)

	out := openResponse{Result: res}
	if docID != "" {
		if d, err := h.docs.GetDocument(ctx, docID); err == nil {
			out.Document = d
		}
	}
	return c.JSON(http.StatusOK, out)
}

// TokenRef is a short non-secret reference to an opaque token for logs and
// the audit trail.
func TokenRef(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "#" + hex.EncodeToString(sum[:])[:12]
}

// Share mints a link for a document. Patients may only share their own
// documents and must name themselves with ?doc= (and ?policy=).
func (h *Handler) Share(c echo.Context) error {
	if h.issuer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "share links are not configured")
	}
	ctx := c.Request().Context()
	d, err := h.docs.GetDocument(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, results.ErrDocumentNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "document not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !auth.HasRole(ctx, auth.RoleStaff) {
		viewer := identity.New(c.QueryParam("doc"), c.QueryParam("policy"))
		if viewer.Empty() {
			return echo.NewHTTPError(http.StatusBadRequest, "doc is required")
		}
		if !h.docs.CanAccess(d, viewer) {
			return echo.NewHTTPError(http.StatusNotFound, "document not found")
		}
	}
	link, err := h.issuer.Issue(ctx, d.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, link)
}
