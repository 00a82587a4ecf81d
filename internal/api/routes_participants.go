package api

import (
	"github.com/gin-gonic/gin"

	"github.com/giftloop/giftloop/internal/handlers"
)

func registerParticipantRoutes(api *gin.RouterGroup, participantHandler *handlers.ParticipantHandler) {
	participants := api.Group("/participants")
	{
		participants.POST("", participantHandler.Create)
		participants.GET("/:id", participantHandler.Get)
	}
}
