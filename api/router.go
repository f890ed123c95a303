package api

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billionterry20-eng/shu3/middleware"
)

func SetupRouter(webFS embed.FS) *gin.Engine {
	r := gin.Default()
	r.Use(CORSMiddleware())
	apiGroup := r.Group("/api")
	apiGroup.Use(middleware.RateLimitMiddleware())
	{
		apiGroup.GET("/health", HealthCheck)

		apiGroup.GET("/accounts", GetAccounts)
		apiGroup.POST("/accounts", CreateAccount)
		apiGroup.GET("/accounts/:id", GetAccount)
		apiGroup.PUT("/accounts/:id", UpdateAccount)
		apiGroup.DELETE("/accounts/:id", DeleteAccount)
		apiGroup.POST("/accounts/:id/toggle", ToggleAccount)
		apiGroup.POST("/accounts/:id/submit", SubmitAccount)
		apiGroup.POST("/accounts/:id/test", TestAccount)
		apiGroup.GET("/accounts/:id/logs", GetAccountSubmitLogs)

		apiGroup.GET("/logs", GetSubmitLogs)
		apiGroup.DELETE("/logs", ClearSubmitLogs)
		apiGroup.GET("/logs/panel", GetPanelLogs)

		apiGroup.POST("/jobs/reload", ReloadJobs)

		apiGroup.GET("/ws", HandleWebSocket)
		apiGroup.GET("/ws/logs", HandlePanelLogsWS)
	}

	distFS, err := fs.Sub(webFS, "web/dist")
	if err != nil {
		panic("Failed to load frontend files: " + err.Error())
	}
	r.GET("/assets/*filepath", func(c *gin.Context) {
		filepath := c.Param("filepath")
		c.FileFromFS("assets"+filepath, http.FS(distFS))
	})
	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if path != "/" && path != "" {
			cleanPath := path
			if len(cleanPath) > 0 && cleanPath[0] == '/' {
				cleanPath = cleanPath[1:]
			}
			if fileInfo, err := fs.Stat(distFS, cleanPath); err == nil && !fileInfo.IsDir() {
				c.FileFromFS(cleanPath, http.FS(distFS))
				return
			}
		}
		data, err := fs.ReadFile(distFS, "index.html")
		if err != nil {
			c.String(http.StatusNotFound, "Page not found")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	})
	return r
}

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
