package httpserve

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/bnema/regatta/internal/httpserve/handlers"
	"github.com/bnema/regatta/internal/server"
)

// RegisterRoutes wires the viewer API and the registry pass-through. The
// repository segments use wildcards because Distribution repository names
// may contain slashes (e.g. library/alpine).
func RegisterRoutes(e *echo.Echo, a *server.App) *echo.Echo {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	api := e.Group("/api")
	api.GET("/health", func(c echo.Context) error {
		return handlers.GetHealth(c, a)
	})
	api.GET("/repositories", func(c echo.Context) error {
		return handlers.GetRepositories(c, a)
	})
	api.GET("/tags/*", func(c echo.Context) error {
		return handlers.GetTags(c, a)
	})
	api.DELETE("/tags/*", func(c echo.Context) error {
		return handlers.DeleteTags(c, a)
	})
	api.GET("/manifests/*", func(c echo.Context) error {
		return handlers.GetManifest(c, a)
	})
	api.GET("/blobs/*", func(c echo.Context) error {
		return handlers.GetBlob(c, a)
	})

	// raw pass-through to the upstream registry
	e.Any(a.Config.Http.PathPrefix, func(c echo.Context) error {
		return handlers.ProxyRegistry(c, a)
	})
	e.Any(a.Config.Http.PathPrefix+"/*", func(c echo.Context) error {
		return handlers.ProxyRegistry(c, a)
	})

	return e
}
