package sitebot

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gitlab.com/tozd/go/errors"

	"github.com/eringen/sitebot/assets"
	"github.com/eringen/sitebot/site"
	"github.com/eringen/sitebot/views"
)

func (a *App) setupRoutes() {
	e := a.Echo
	e.GET("/", a.handleHome)
	e.GET("/healthz", handleHealth)
	e.GET("/sites/:file", a.handleSite)
	e.HEAD("/sites/:file", a.handleSite)
}

func (a *App) handleHome(c echo.Context) error {
	sites, err := a.Meta.List(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, views.Landing(a.siteConfig(), views.Stats{Sites: len(sites)}))
}

func handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleSite serves the stored content of a site as HTML.
func (a *App) handleSite(c echo.Context) error {
	ref := c.Param("file")
	if !assets.ValidRef(ref) {
		return echo.ErrNotFound
	}
	content, err := a.Assets.Get(c.Request().Context(), ref)
	if err != nil {
		if errors.Is(err, site.ErrNotFound) {
			return echo.ErrNotFound
		}
		return err
	}
	return c.Blob(http.StatusOK, echo.MIMETextHTMLCharsetUTF8, content)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	switch {
	case code == http.StatusNotFound:
		_ = RenderStatus(c, code, views.ErrorPage(a.siteConfig(), code, "Site not found"))
	case code >= 500:
		a.logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("server error")
		_ = RenderStatus(c, code, views.ErrorPage(a.siteConfig(), code, "Something went wrong"))
	default:
		a.Echo.DefaultHTTPErrorHandler(err, c)
	}
}
