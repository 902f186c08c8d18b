package server

import (
	"github.com/gin-gonic/gin"
	httpHandler "syllabus-crawler/interfaces/http"
)

func InitiateRouter(scrapeHandler httpHandler.IScrapeHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", scrapeHandler.Healthz)

	api := router.Group("api")
	scrape := api.Group("/scrape")
	{
		scrape.POST("/jobs", scrapeHandler.SubmitJob)
		scrape.GET("/jobs", scrapeHandler.ListJobs)
		scrape.GET("/jobs/:id", scrapeHandler.GetJob)
		scrape.GET("/jobs/:id/stream", scrapeHandler.StreamJob)
	}

	return router
}
