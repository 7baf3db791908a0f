package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/notebrief/core/internal/middleware"
	"github.com/notebrief/core/internal/modules/summarize"
	"github.com/notebrief/core/internal/pkg/response"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes() {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":     "notebrief",
		"version":  "1.0.0",
		"homepage": "https://github.com/notebrief/core",
		"issues":   "https://github.com/notebrief/core/issues",
	}

	r.GET("/", a.serveIndex)

	api := r.Group(apiPrefix)
	if a.rc != nil {
		api.Use(middleware.RateLimit(a.rc.Raw(), a.cfg.RateLimit.PerMinute))
	}

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/info", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		uptimeMs := time.Since(processStart).Milliseconds()
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptimeMs,
			"humanize":  humanizeDuration(time.Duration(uptimeMs) * time.Millisecond),
		})
	})

	svc := summarize.NewService(a.cfg, summarize.WithLogger(a.logger))
	summarize.NewHandler(svc).RegisterRoutes(api)
}
