package patient

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
	// Read endpoints: tenant-scoped, no authority required
	api.GET("/patients", h.List)
	api.GET("/patients/:id", h.Get)

	// Write endpoints: verified authority plus the clinician role
	writeGroup := api.Group("", authority.RequireAuthority(), authority.RequireRole("clinician"))
	writeGroup.POST("/patients", h.Create)
	writeGroup.PUT("/patients/:id", h.Update)
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

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, domainerr.New(domainerr.CodeNotFound))
	}
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, domainerr.Validation("body: malformed request"))
	}
	ctx := c.Request().Context()
	rec, err := h.svc.Update(ctx, id, in, authority.FromContext(ctx))
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
