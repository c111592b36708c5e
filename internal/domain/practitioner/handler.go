package practitioner

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/authority"
	"github.com/clinicore/clinicore/internal/platform/domainerr"
	"github.com/clinicore/clinicore/pkg/pagination"
	"github.com/clinicore/clinicore/pkg/respond"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/practitioners", h.List)
	api.GET("/practitioners/:id", h.Get)

	writeGroup := api.Group("", authority.RequireAuthority(), authority.RequireRole("clinician", "admin"))
	writeGroup.POST("/practitioners", h.Create)
	writeGroup.POST("/practitioners/:id/deactivate", h.Deactivate)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, domainerr.Validation("body: malformed request"))
	}
	ctx := c.Request().Context()
	rec, err := h.svc.Create(ctx, in, authority.FromContext(ctx))
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.Created(c, NewView(rec))
}

func (h *Handler) Deactivate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, domainerr.New(domainerr.CodeNotFound))
	}
	ctx := c.Request().Context()
	rec, err := h.svc.Deactivate(ctx, id, authority.FromContext(ctx))
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, NewView(rec))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, domainerr.New(domainerr.CodeNotFound))
	}
	ctx := c.Request().Context()
	view, err := h.svc.Get(ctx, authority.TenantFromContext(ctx), id)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, view)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	views, total, err := h.svc.List(ctx, authority.TenantFromContext(ctx), pg.Limit, pg.Offset)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, pagination.NewResponse(views, total, pg.Limit, pg.Offset))
}
