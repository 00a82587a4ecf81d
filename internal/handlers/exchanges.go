package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/giftloop/giftloop/internal/draw"
	"github.com/giftloop/giftloop/internal/models"
	"github.com/giftloop/giftloop/internal/queue"
	"github.com/giftloop/giftloop/internal/services"
	"github.com/giftloop/giftloop/pkg/response"
)

type ExchangeHandler struct {
	exchanges    *services.ExchangeService
	participants *services.ParticipantService
	draws        *services.DrawService
	jobs         queue.Queue
	estimator    draw.EstimatorConfig
	maxAttempts  int
	now          func() time.Time
}

func NewExchangeHandler(db *gorm.DB, jobs queue.Queue, estimator draw.EstimatorConfig, maxAttempts int) (*ExchangeHandler, error) {
	exchanges, err := services.NewExchangeService(db)
	if err != nil {
		return nil, err
	}
	participants, err := services.NewParticipantService(db)
	if err != nil {
		return nil, err
	}
	draws, err := services.NewDrawService(db)
	if err != nil {
		return nil, err
	}
	if maxAttempts <= 0 {
		maxAttempts = draw.DefaultMaxAttempts
	}
	return &ExchangeHandler{
		exchanges:    exchanges,
		participants: participants,
		draws:        draws,
		jobs:         jobs,
		estimator:    estimator,
		maxAttempts:  maxAttempts,
		now:          time.Now,
	}, nil
}

type createExchangeRequest struct {
	Name                 string     `json:"name" validate:"required,min=1,max=128"`
	Slug                 string     `json:"slug" validate:"required,min=1,max=64"`
	Confirmation         *time.Time `json:"confirmation" validate:"required"`
	ConfirmationReminder *time.Time `json:"confirmation_reminder" validate:"required"`
	Drawn                *time.Time `json:"drawn" validate:"required"`
	Sent                 *time.Time `json:"sent" validate:"required"`
	Received             *time.Time `json:"received" validate:"required"`
	SendEmails           *bool      `json:"send_emails"`
}

// GET /api/exchanges
func (h *ExchangeHandler) List(c *gin.Context) {
	exchanges, err := h.exchanges.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, exchanges)
}

// GET /api/exchanges/upcoming
func (h *ExchangeHandler) Upcoming(c *gin.Context) {
	exchanges, err := h.exchanges.Upcoming(requestContext(c), h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, exchanges)
}

// GET /api/exchanges/past
func (h *ExchangeHandler) Past(c *gin.Context) {
	exchanges, err := h.exchanges.Past(requestContext(c), h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, exchanges)
}

// GET /api/exchanges/:slug
func (h *ExchangeHandler) Get(c *gin.Context) {
	exchange, err := h.exchanges.GetBySlug(requestContext(c), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, exchange)
}

// POST /api/exchanges
func (h *ExchangeHandler) Create(c *gin.Context) {
	var body createExchangeRequest
	if !bindAndValidate(c, &body) {
		return
	}

	exchange := &models.Exchange{
		Name:                 strings.TrimSpace(body.Name),
		Slug:                 strings.TrimSpace(body.Slug),
		Confirmation:         *body.Confirmation,
		ConfirmationReminder: *body.ConfirmationReminder,
		Drawn:                *body.Drawn,
		Sent:                 *body.Sent,
		Received:             *body.Received,
		SendEmails:           true,
	}
	if body.SendEmails != nil {
		exchange.SendEmails = *body.SendEmails
	}

	if err := h.exchanges.Create(requestContext(c), exchange); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, exchange)
}

// DELETE /api/exchanges/:slug
func (h *ExchangeHandler) Delete(c *gin.Context) {
	if err := h.exchanges.Delete(requestContext(c), c.Param("slug")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/exchanges/:slug/draw
//
// Administrative trigger that bypasses the scheduler. The draw job itself
// still refuses to overwrite existing assignments, so triggering twice is
// safe.
func (h *ExchangeHandler) TriggerDraw(c *gin.Context) {
	ctx := requestContext(c)

	exchange, err := h.exchanges.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}

	count, err := h.participants.CountEligibleForDraw(ctx, exchange.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	limits := draw.EstimateLimits(int(count), h.maxAttempts, h.estimator)

	job := queue.Job{
		Name:       models.TransitionDraw.JobName(),
		ExchangeID: exchange.ID,
		SoftLimit:  limits.Soft,
		HardLimit:  limits.Hard,
	}
	if err := h.jobs.Enqueue(ctx, job); err != nil {
		response.Error(c, err)
		return
	}

	response.Accepted(c, gin.H{
		"exchange":     exchange.Slug,
		"participants": count,
		"soft_limit":   limits.Soft.String(),
		"hard_limit":   limits.Hard.String(),
	})
}

// GET /api/exchanges/:slug/draws
func (h *ExchangeHandler) ListDraws(c *gin.Context) {
	ctx := requestContext(c)

	exchange, err := h.exchanges.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}

	draws, err := h.draws.ForExchange(ctx, exchange.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, draws)
}

// DELETE /api/exchanges/:slug/draws
//
// Clears the assignments so the exchange can be drawn again.
func (h *ExchangeHandler) RemoveDraws(c *gin.Context) {
	ctx := requestContext(c)

	exchange, err := h.exchanges.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}

	removed, err := h.draws.DeleteForExchange(ctx, exchange.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": removed})
}
