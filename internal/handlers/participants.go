package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/giftloop/giftloop/internal/models"
	"github.com/giftloop/giftloop/internal/services"
	"github.com/giftloop/giftloop/pkg/response"
)

type ParticipantHandler struct {
	participants *services.ParticipantService
}

func NewParticipantHandler(db *gorm.DB) (*ParticipantHandler, error) {
	participants, err := services.NewParticipantService(db)
	if err != nil {
		return nil, err
	}
	return &ParticipantHandler{participants: participants}, nil
}

type createParticipantRequest struct {
	Email      string `json:"email" validate:"required,email"`
	FirstName  string `json:"first_name" validate:"omitempty,max=64"`
	LastName   string `json:"last_name" validate:"omitempty,max=64"`
	HasAddress bool   `json:"has_address"`
}

// POST /api/participants
func (h *ParticipantHandler) Create(c *gin.Context) {
	var body createParticipantRequest
	if !bindAndValidate(c, &body) {
		return
	}

	participant := &models.Participant{
		Email:      strings.ToLower(strings.TrimSpace(body.Email)),
		FirstName:  strings.TrimSpace(body.FirstName),
		LastName:   strings.TrimSpace(body.LastName),
		HasAddress: body.HasAddress,
		IsActive:   true,
	}

	if err := h.participants.Create(requestContext(c), participant); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, participant)
}

// GET /api/participants/:id
func (h *ParticipantHandler) Get(c *gin.Context) {
	participant, err := h.participants.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, participant)
}
