package auditevent

import (
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/authority"
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
	read := api.Group("", authority.RequireRole("admin"))
	read.GET("/audit-events", h.List)
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
