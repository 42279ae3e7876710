package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"devproxy-go/internal/config"
)

// Route is the branch a request is dispatched to.
type Route int

const (
	RouteStatic Route = iota
	RoutePreflight
	RouteProxy
	RouteUnsupported
)

func (r Route) String() string {
	switch r {
	case RouteStatic:
		return "static"
	case RoutePreflight:
		return "preflight"
	case RouteProxy:
		return "proxy"
	case RouteUnsupported:
		return "unsupported"
	}
	return fmt.Sprintf("Route(%d)", int(r))
}

// Dispatcher picks between the upstream proxy and the static file responder
// for every request that no reserved route claims.
type Dispatcher struct {
	proxy  *ProxyHandler
	static *StaticHandler
}

// NewDispatcher creates a Dispatcher. The proxy branch is only reachable
// when cfg enables it.
func NewDispatcher(cfg *config.Config, proxy *ProxyHandler, static *StaticHandler) *Dispatcher {
	d := &Dispatcher{static: static}
	if cfg.ProxyEnabled() {
		d.proxy = proxy
	}
	return d
}

// Classify returns the route for a request method and escaped path.
func (d *Dispatcher) Classify(method, path string) Route {
	switch method {
	case http.MethodOptions:
		return RoutePreflight
	case http.MethodGet:
		if d.proxy != nil && d.proxy.service.Matches(path) {
			return RouteProxy
		}
		return RouteStatic
	case http.MethodHead:
		return RouteStatic
	}
	return RouteUnsupported
}

// Handle dispatches c to the branch Classify selects.
func (d *Dispatcher) Handle(c echo.Context) error {
	req := c.Request()

	switch d.Classify(req.Method, req.URL.EscapedPath()) {
	case RoutePreflight:
		return c.NoContent(http.StatusOK)
	case RouteProxy:
		return d.proxy.Handle(c)
	case RouteStatic:
		return d.static.Handle(c)
	}

	return c.JSON(http.StatusNotImplemented, map[string]string{
		"error": fmt.Sprintf("Unsupported method (%q)", req.Method),
	})
}
