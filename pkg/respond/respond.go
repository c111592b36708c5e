package respond

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/domainerr"
)

// Envelope is the fixed response shape for every endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details []string    `json:"details,omitempty"`
}

func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Error maps a domain error to the fixed status-code table and the generic
// message table. Details pass through for validation errors only; any other
// error renders as an opaque 500.
func Error(c echo.Context, err error) error {
	de, ok := domainerr.As(err)
	if !ok {
		de = domainerr.Persistence(err)
	}
	env := Envelope{Success: false, Error: de.Message()}
	if de.Code == domainerr.CodeValidation {
		env.Details = de.Details
	}
	return c.JSON(de.HTTPStatus(), env)
}
