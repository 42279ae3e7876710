package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"devproxy-go/internal/config"
)

// StaticHandler serves files from the configured root directory.
type StaticHandler struct {
	serve echo.HandlerFunc
}

// NewStaticHandler creates a StaticHandler rooted at cfg.Static.Root.
// Directories are answered with their index file, or a listing when
// browsing is enabled; anything missing is a 404.
func NewStaticHandler(cfg *config.Config) *StaticHandler {
	files := echomw.StaticWithConfig(echomw.StaticConfig{
		Root:       ".",
		Index:      cfg.Static.Index,
		Browse:     cfg.Static.BrowseEnabled(),
		Filesystem: http.Dir(cfg.Static.Root),
	})

	return &StaticHandler{
		serve: files(func(echo.Context) error {
			return echo.ErrNotFound
		}),
	}
}

// Handle serves the file named by the request path.
func (h *StaticHandler) Handle(c echo.Context) error {
	return h.serve(c)
}
