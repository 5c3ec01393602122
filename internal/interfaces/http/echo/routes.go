package echo

import (
	"context"
	"net/http"

	e "github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the API under /api/v1. The given middleware only
// wraps API routes.
func RegisterRoutes(server *e.Echo, importHandler *ImportHandler, memberHandler *MemberHandler, mw ...e.MiddlewareFunc) {
	api := server.Group("/api/v1", mw...)

	api.GET("/imports/template", importHandler.DownloadTemplate)

	clubs := api.Group("/clubs/:clubID")
	clubs.POST("/imports", importHandler.CreateImportLog)
	clubs.POST("/imports/upload", importHandler.UploadImport)
	clubs.GET("/imports/:importID", importHandler.FetchImportResult)
	clubs.POST("/imports/:importID/rows", importHandler.StageRows)
	clubs.GET("/imports/:importID/preview", importHandler.FetchPreview)
	clubs.POST("/imports/:importID/commit", importHandler.CommitImport)
	clubs.GET("/members/:id", memberHandler.GetMemberByID)
}

// RegisterOps mounts /healthz and /metrics. ping reports whether the
// database is reachable.
func RegisterOps(server *e.Echo, ping func(ctx context.Context) error) {
	server.GET("/healthz", func(c e.Context) error {
		if ping != nil {
			if err := ping(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	server.GET("/metrics", e.WrapHandler(promhttp.Handler()))
}
