package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/giftloop/giftloop/internal/api"
	"github.com/giftloop/giftloop/internal/app"
	"github.com/giftloop/giftloop/internal/database"
	"github.com/giftloop/giftloop/internal/draw"
	"github.com/giftloop/giftloop/internal/models"
	"github.com/giftloop/giftloop/internal/notify"
	"github.com/giftloop/giftloop/internal/queue"
	"github.com/giftloop/giftloop/internal/scheduler"
	"github.com/giftloop/giftloop/internal/services"
	"github.com/giftloop/giftloop/pkg/logger"
	"github.com/giftloop/giftloop/pkg/mail"
)

// runtimeStack bundles the long-lived pieces of the running server.
type runtimeStack struct {
	DB        *gorm.DB
	Jobs      *queue.Memory
	Scheduler *scheduler.Scheduler
	Router    *gin.Engine
}

// bootstrapRuntime initialises the database, services, job queue, scheduler
// and HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}
	stack.DB = db

	exchanges, err := services.NewExchangeService(db)
	if err != nil {
		return nil, fmt.Errorf("initialise exchange service: %w", err)
	}
	participants, err := services.NewParticipantService(db)
	if err != nil {
		return nil, fmt.Errorf("initialise participant service: %w", err)
	}
	draws, err := services.NewDrawService(db)
	if err != nil {
		return nil, fmt.Errorf("initialise draw service: %w", err)
	}

	optimizer, err := draw.NewOptimizer(participants, draws, draws,
		draw.WithMaxAttempts(cfg.Draw.MaxAttempts))
	if err != nil {
		return nil, fmt.Errorf("initialise draw optimizer: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return nil, fmt.Errorf("initialise smtp mailer: %w", err)
	}
	dispatcher, err := notify.NewDispatcher(mailer)
	if err != nil {
		return nil, fmt.Errorf("initialise notification dispatcher: %w", err)
	}

	stack.Jobs = queue.NewMemory(cfg.Queue.Capacity)
	registerJobHandlers(stack.Jobs, exchanges, participants, draws, optimizer, dispatcher)
	stack.Jobs.Start()

	if cfg.Scheduler.Enabled {
		stack.Scheduler, err = scheduler.New(exchanges, participants, stack.Jobs,
			scheduler.WithPollSpec(cfg.Scheduler.Spec),
			scheduler.WithEstimator(cfg.Draw.EstimatorSettings()),
			scheduler.WithMaxAttempts(cfg.Draw.MaxAttempts))
		if err != nil {
			return nil, fmt.Errorf("initialise scheduler: %w", err)
		}
		if err := stack.Scheduler.Start(); err != nil {
			return nil, fmt.Errorf("start scheduler: %w", err)
		}
	}

	stack.Router, err = api.NewRouter(api.Options{
		DB:            db,
		Jobs:          stack.Jobs,
		Estimator:     cfg.Draw.EstimatorSettings(),
		MaxAttempts:   cfg.Draw.MaxAttempts,
		ExposeMetrics: cfg.Monitoring.Prometheus.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	return stack, nil
}

// registerJobHandlers binds the five lifecycle jobs to their handlers.
func registerJobHandlers(
	jobs *queue.Memory,
	exchanges *services.ExchangeService,
	participants *services.ParticipantService,
	draws *services.DrawService,
	optimizer *draw.Optimizer,
	dispatcher *notify.Dispatcher,
) {
	// Confirmation request and reminder both target participants who have
	// joined but not yet confirmed.
	unconfirmedBroadcast := func(send func(context.Context, *models.Exchange, []models.Participant) error) queue.Handler {
		return func(ctx context.Context, job queue.Job) error {
			exchange, err := exchanges.Get(ctx, job.ExchangeID)
			if err != nil {
				return err
			}
			pending, err := participants.EnrolledIn(ctx, exchange.ID, true)
			if err != nil {
				return err
			}
			return send(ctx, exchange, pending)
		}
	}

	drawBroadcast := func(send func(context.Context, *models.Exchange, []models.Draw) error) queue.Handler {
		return func(ctx context.Context, job queue.Job) error {
			exchange, err := exchanges.Get(ctx, job.ExchangeID)
			if err != nil {
				return err
			}
			assigned, err := draws.ForExchange(ctx, exchange.ID)
			if err != nil {
				return err
			}
			return send(ctx, exchange, assigned)
		}
	}

	jobs.Register(models.TransitionConfirmation.JobName(), unconfirmedBroadcast(dispatcher.ConfirmationRequests))
	jobs.Register(models.TransitionConfirmationReminder.JobName(), unconfirmedBroadcast(dispatcher.ConfirmationReminders))
	jobs.Register(models.TransitionSendReminder.JobName(), drawBroadcast(dispatcher.SendReminders))
	jobs.Register(models.TransitionReceiveReminder.JobName(), drawBroadcast(dispatcher.ReceiveReminders))

	jobs.Register(models.TransitionDraw.JobName(), func(ctx context.Context, job queue.Job) error {
		exchange, err := exchanges.Get(ctx, job.ExchangeID)
		if err != nil {
			return err
		}
		if _, err := optimizer.Run(ctx, exchange, job.SoftLimit); err != nil {
			return err
		}
		// Reload with sender and recipient for the notification bodies.
		assigned, err := draws.ForExchange(ctx, exchange.ID)
		if err != nil {
			return err
		}
		return dispatcher.AssignmentEmails(ctx, exchange, assigned)
	})
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseSettings()
	dbCfg.Driver = strings.ToLower(strings.TrimSpace(dbCfg.Driver))
	if dbCfg.Driver == "" {
		dbCfg.Driver = "sqlite"
	}

	db, err := database.OpenAndMigrate(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}

// Shutdown tears the stack down in reverse order of construction.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Scheduler != nil {
		<-s.Scheduler.Stop().Done()
	}

	if s.Jobs != nil {
		if err := s.Jobs.Stop(ctx); err != nil {
			log.Warn("job queue drain failed", zap.Error(err))
		}
	}

	if s.DB != nil {
		if err := database.Close(s.DB); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}
}
