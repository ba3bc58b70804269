package handler

import (
	_ "formgateway/docs"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/useinsider/go-pkg/inslogger"
)

type RouterOptions struct {
	CORSAllowCredentials bool
}

func NewRouter(h *SubmissionHandler, logger inslogger.Interface, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		RequestID(),
		RequestLogger(logger),
		CORS(opts.CORSAllowCredentials),
	)

	router.GET("/", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	api.POST("/submit-form", h.SubmitForm)
	api.GET("/get-submissions", h.GetSubmissions)
	api.POST("/get-by-email", h.GetByEmail)
	api.POST("/update-record", h.UpdateRecord)

	return router
}
