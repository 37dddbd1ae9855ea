package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"github.com/ManuelReschke/LinkFox/app/controllers"
)

// HttpRouter serves the browser facing routes: short link redirects and metrics.
type HttpRouter struct {
	API         *controllers.API
	MetricsUser string
	MetricsPass string
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/r/:code", h.API.HandleRedirect)

	// metrics stay disabled until credentials are configured
	if h.MetricsUser != "" && h.MetricsPass != "" {
		app.Get("/metrics", basicauth.New(basicauth.Config{
			Users: map[string]string{
				h.MetricsUser: h.MetricsPass,
			},
		}), monitor.New(monitor.Config{Title: "LinkFox Metrics"}))
	}
}

func NewHttpRouter(api *controllers.API) *HttpRouter {
	return &HttpRouter{API: api}
}
