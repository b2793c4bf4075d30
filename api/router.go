package api

import (
	"embed"
	"html/template"
	"net/http"

	"criadero/internal/logger"
	"criadero/internal/metrics"
	"criadero/internal/sales"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

// InitRoutes registers the sales endpoints, the HTML pages and the
// operational endpoints on the given Gin engine.
func InitRoutes(e *gin.Engine, salesService *sales.Service, log *zap.Logger, m *metrics.HTTPMetrics) {
	e.SetHTMLTemplate(template.Must(template.New("").ParseFS(templatesFS, "templates/*.html")))

	e.Use(
		gin.Recovery(),
		RequestID(log),
		logger.Middleware(log),
		m.Middleware(),
	)

	salesHandler := NewSalesHandler(salesService, log, m)

	e.GET("/", salesHandler.handleIndex)
	e.POST("/agregar", salesHandler.handleCreateSale)
	e.GET("/reporte", salesHandler.handleReport)

	e.GET("/health", salesHandler.handleHealth)
	e.GET("/metrics", gin.WrapH(m.Handler()))
	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
}
