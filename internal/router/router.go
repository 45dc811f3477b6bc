package router

import (
	"net/http"
	"strings"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/workflow-service/api"
	"github.com/psds-microservice/workflow-service/internal/handler"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const (
	pathHealth  = "/health"
	pathReady   = "/ready"
	pathSwagger = "/swagger"
)

func New(
	log *zap.Logger,
	workflowHandler *handler.WorkflowHandler,
	ticketHandler *handler.TicketHandler,
	teamHandler *handler.TeamHandler,
) http.Handler {
	r := gin.New()
	r.Use(ginzap.Ginzap(log, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(log, true))
	r.GET(pathHealth, gin.WrapF(handler.Health))
	r.GET(pathReady, gin.WrapF(handler.Ready))
	r.GET(pathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, pathSwagger+"/") })
	r.GET(pathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = pathSwagger + "/index.html"
			c.Request.RequestURI = pathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/openapi.json"))(c)
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/workflows", workflowHandler.Submit)
		v1.GET("/workflows/:id", workflowHandler.Get)
		v1.GET("/workflows", workflowHandler.List)
		v1.POST("/workflows/:id/approve", workflowHandler.Approve)
		v1.POST("/workflows/:id/reject", workflowHandler.Reject)

		v1.POST("/tickets", ticketHandler.Create)
		v1.GET("/tickets/:id", ticketHandler.Get)
		v1.GET("/tickets", ticketHandler.List)
		v1.POST("/tickets/:id/assign", ticketHandler.Assign)
		v1.POST("/tickets/:id/escalate", ticketHandler.Escalate)
		v1.POST("/tickets/:id/resolve", ticketHandler.Resolve)
		v1.POST("/tickets/:id/close", ticketHandler.Close)
		v1.POST("/tickets/:id/comments", ticketHandler.Comment)

		v1.GET("/team/members", teamHandler.Members)
		v1.GET("/team/utilization", teamHandler.Utilization)
	}

	return r
}
