package encounter

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
	api.GET("/encounters", h.List)
	api.GET("/encounters/:id", h.Get)

	writeGroup := api.Group("", authority.RequireAuthority(), authority.RequireRole("clinician"))
	writeGroup.POST("/encounters", h.Create)
	writeGroup.PATCH("/encounters/:id/status", h.ChangeStatus)
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

func (h *Handler) ChangeStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respond.Error(c, domainerr.New(domainerr.CodeNotFound))
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return respond.Error(c, domainerr.Validation("body: malformed request"))
	}
	ctx := c.Request().Context()
	rec, err := h.svc.ChangeStatus(ctx, id, body.Status, authority.FromContext(ctx))
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
	tenantID := authority.TenantFromContext(ctx)

	if pid := c.QueryParam("patient_id"); pid != "" {
		patientID, err := uuid.Parse(pid)
		if err != nil {
			return respond.Error(c, domainerr.Validation("patient_id: must be a UUID"))
		}
		views, total, err := h.svc.ListByPatient(ctx, tenantID, patientID, pg.Limit, pg.Offset)
		if err != nil {
			return respond.Error(c, err)
		}
		return respond.OK(c, pagination.NewResponse(views, total, pg.Limit, pg.Offset))
	}

	views, total, err := h.svc.List(ctx, tenantID, pg.Limit, pg.Offset)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, pagination.NewResponse(views, total, pg.Limit, pg.Offset))
}
