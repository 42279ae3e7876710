package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Cross-origin header values attached to every response.
const (
	AllowOrigin  = "*"
	AllowMethods = "GET, POST, OPTIONS"
	AllowHeaders = "Content-Type"
)

// CORS returns an Echo middleware that attaches permissive cross-origin
// headers to every response and answers preflight requests with 200 and an
// empty body.
//
// The headers are applied again in a Response.Before hook, so whatever a
// handler or Echo's error handler does to the header map, the values in
// force when the status line is written are these.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res := c.Response()
			setCORSHeaders(res.Header())
			res.Before(func() {
				setCORSHeaders(res.Header())
			})

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}

			return next(c)
		}
	}
}

func setCORSHeaders(h http.Header) {
	h.Set(echo.HeaderAccessControlAllowOrigin, AllowOrigin)
	h.Set(echo.HeaderAccessControlAllowMethods, AllowMethods)
	h.Set(echo.HeaderAccessControlAllowHeaders, AllowHeaders)
}
