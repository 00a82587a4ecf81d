package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/giftloop/giftloop/internal/models"
	"github.com/giftloop/giftloop/internal/services"
	"github.com/giftloop/giftloop/pkg/response"
)

type EnrollmentHandler struct {
	exchanges   *services.ExchangeService
	enrollments *services.EnrollmentService
	draws       *services.DrawService
	now         func() time.Time
}

func NewEnrollmentHandler(db *gorm.DB) (*EnrollmentHandler, error) {
	exchanges, err := services.NewExchangeService(db)
	if err != nil {
		return nil, err
	}
	enrollments, err := services.NewEnrollmentService(db)
	if err != nil {
		return nil, err
	}
	draws, err := services.NewDrawService(db)
	if err != nil {
		return nil, err
	}
	return &EnrollmentHandler{
		exchanges:   exchanges,
		enrollments: enrollments,
		draws:       draws,
		now:         time.Now,
	}, nil
}

type joinExchangeRequest struct {
	ParticipantID string `json:"participant_id" validate:"required,uuid4"`
}

// resolveExchange loads the exchange named by the slug route parameter,
// writing the error response itself when the lookup fails.
func (h *EnrollmentHandler) resolveExchange(c *gin.Context) (*models.Exchange, bool) {
	exchange, err := h.exchanges.GetBySlug(requestContext(c), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return exchange, true
}

// POST /api/exchanges/:slug/enrollments
func (h *EnrollmentHandler) Join(c *gin.Context) {
	var body joinExchangeRequest
	if !bindAndValidate(c, &body) {
		return
	}

	exchange, ok := h.resolveExchange(c)
	if !ok {
		return
	}

	enrollment, err := h.enrollments.Join(requestContext(c), body.ParticipantID, exchange.ID, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, enrollment)
}

// POST /api/exchanges/:slug/enrollments/:participantID/confirm
func (h *EnrollmentHandler) Confirm(c *gin.Context) {
	exchange, ok := h.resolveExchange(c)
	if !ok {
		return
	}

	enrollment, err := h.enrollments.Confirm(requestContext(c), c.Param("participantID"), exchange.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, enrollment)
}

// GET /api/exchanges/:slug/enrollments
func (h *EnrollmentHandler) List(c *gin.Context) {
	exchange, ok := h.resolveExchange(c)
	if !ok {
		return
	}

	enrollments, err := h.enrollments.ForExchange(requestContext(c), exchange.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, enrollments)
}

// GET /api/exchanges/:slug/assignments/:participantID
//
// Returns who the participant is buying for. Only the sender's own draw is
// ever exposed; recipients never learn their sender.
func (h *EnrollmentHandler) Assignment(c *gin.Context) {
	exchange, ok := h.resolveExchange(c)
	if !ok {
		return
	}

	draw, err := h.draws.ForSender(requestContext(c), exchange.ID, c.Param("participantID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, draw)
}

// POST /api/exchanges/:slug/assignments/:participantID/sent
func (h *EnrollmentHandler) MarkSent(c *gin.Context) {
	exchange, ok := h.resolveExchange(c)
	if !ok {
		return
	}

	if err := h.draws.MarkSent(requestContext(c), exchange.ID, c.Param("participantID"), h.now()); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sent": true})
}

// POST /api/exchanges/:slug/assignments/:participantID/received
func (h *EnrollmentHandler) MarkReceived(c *gin.Context) {
	exchange, ok := h.resolveExchange(c)
	if !ok {
		return
	}

	if err := h.draws.MarkReceived(requestContext(c), exchange.ID, c.Param("participantID"), h.now()); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"received": true})
}
