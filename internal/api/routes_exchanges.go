package api

import (
	"github.com/gin-gonic/gin"

	"github.com/giftloop/giftloop/internal/handlers"
)

func registerExchangeRoutes(api *gin.RouterGroup, exchangeHandler *handlers.ExchangeHandler, enrollmentHandler *handlers.EnrollmentHandler) {
	exchanges := api.Group("/exchanges")
	{
		exchanges.GET("", exchangeHandler.List)
		exchanges.GET("/upcoming", exchangeHandler.Upcoming)
		exchanges.GET("/past", exchangeHandler.Past)
		exchanges.POST("", exchangeHandler.Create)
		exchanges.GET("/:slug", exchangeHandler.Get)
		exchanges.DELETE("/:slug", exchangeHandler.Delete)

		exchanges.POST("/:slug/draw", exchangeHandler.TriggerDraw)
		exchanges.GET("/:slug/draws", exchangeHandler.ListDraws)
		exchanges.DELETE("/:slug/draws", exchangeHandler.RemoveDraws)

		exchanges.GET("/:slug/enrollments", enrollmentHandler.List)
		exchanges.POST("/:slug/enrollments", enrollmentHandler.Join)
		exchanges.POST("/:slug/enrollments/:participantID/confirm", enrollmentHandler.Confirm)

		exchanges.GET("/:slug/assignments/:participantID", enrollmentHandler.Assignment)
		exchanges.POST("/:slug/assignments/:participantID/sent", enrollmentHandler.MarkSent)
		exchanges.POST("/:slug/assignments/:participantID/received", enrollmentHandler.MarkReceived)
	}
}
