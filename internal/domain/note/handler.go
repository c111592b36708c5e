package note

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
	api.GET("/notes/:id", h.Get)
	api.GET("/notes/:id/versions", h.History)
	api.GET("/encounters/:id/notes", h.ListByEncounter)

	writeGroup := api.Group("", authority.RequireAuthority(), authority.RequireRole("clinician"))
	writeGroup.POST("/notes", h.StartDraft)
	writeGroup.PUT("/notes/:id", h.UpdateDraft)
	writeGroup.POST("/notes/:id/finalize", h.Finalize)
}

func (h *Handler) StartDraft(c echo.Context) error {
	var in StartDraftInput
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, domainerr.Validation("body: malformed request"))
	}
	ctx := c.Request().Context()
	rec, err := h.svc.StartDraft(ctx, in, authority.FromContext(ctx))
	if err != nil {
		return respond.Error(c, err)
	}
	view, err := h.svc.Get(ctx, rec.TenantID, rec.ID)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.Created(c, view)
}

func (h *Handler) UpdateDraft(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, domainerr.New(domainerr.CodeNotFound))
	}
	var in UpdateDraftInput
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, domainerr.Validation("body: malformed request"))
	}
	ctx := c.Request().Context()
	rec, err := h.svc.UpdateDraft(ctx, id, in, authority.FromContext(ctx))
	if err != nil {
		return respond.Error(c, err)
	}
	view, err := h.svc.Get(ctx, rec.TenantID, rec.ID)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, view)
}

func (h *Handler) Finalize(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, domainerr.New(domainerr.CodeNotFound))
	}
	ctx := c.Request().Context()
	rec, err := h.svc.Finalize(ctx, id, authority.FromContext(ctx))
	if err != nil {
		return respond.Error(c, err)
	}
	view, err := h.svc.Get(ctx, rec.TenantID, rec.ID)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, view)
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

func (h *Handler) History(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, domainerr.New(domainerr.CodeNotFound))
	}
	ctx := c.Request().Context()
	views, err := h.svc.History(ctx, authority.TenantFromContext(ctx), id)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, views)
}

func (h *Handler) ListByEncounter(c echo.Context) error {
	encounterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, domainerr.New(domainerr.CodeNotFound))
	}
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	views, total, err := h.svc.ListByEncounter(ctx, authority.TenantFromContext(ctx), encounterID, pg.Limit, pg.Offset)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, pagination.NewResponse(views, total, pg.Limit, pg.Offset))
}
