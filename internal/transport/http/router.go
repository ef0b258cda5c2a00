package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"photopipe-server-go/internal/platform/logging"
)

// RouteRegistrar mounts a service's routes under the API group.
type RouteRegistrar interface {
	RegisterRoutes(api *gin.RouterGroup)
}

// NewRouter builds the gin engine with CORS, request logging and the
// API group. outputDir, when non-empty, is served at outputBase for
// the local storage driver.
func NewRouter(logger *logging.Logger, outputDir, outputBase string, services ...RouteRegistrar) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	engine.Use(cors.New(corsCfg))

	if outputDir != "" {
		engine.Use(static.Serve(outputBase, static.LocalFile(outputDir, false)))
	}

	api := engine.Group("/api/v1")
	for _, s := range services {
		s.RegisterRoutes(api)
	}
	return engine
}

func requestLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Status() >= 500 {
			logger.Error("request failed",
				"method", c.Request.Method, "path", c.Request.URL.Path,
				"status", c.Writer.Status())
		} else {
			logger.Debug("request",
				"method", c.Request.Method, "path", c.Request.URL.Path,
				"status", c.Writer.Status())
		}
	}
}
