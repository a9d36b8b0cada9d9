// cmd/scheduler/main.go
//
// Standalone poller binary for deployments that separate the HTTP surface
// from background dispatch. Run exactly one instance: the dispatch ledger
// guards duplicate sends best-effort, it is not a distributed lock.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bulkwave/bulkwave-backend/internal/config"
	"github.com/bulkwave/bulkwave-backend/internal/db"
	"github.com/bulkwave/bulkwave-backend/internal/events"
	"github.com/bulkwave/bulkwave-backend/internal/gateway"
	"github.com/bulkwave/bulkwave-backend/internal/repository"
	"github.com/bulkwave/bulkwave-backend/internal/scheduler"
	"github.com/bulkwave/bulkwave-backend/internal/service"
	"github.com/bulkwave/bulkwave-backend/pkg/logger"
)

func main() {
	godotenv.Load()

	cfg := config.Load()
	log, err := logger.Init(cfg.LogPath)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db.Init(log)

	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	dispatchRepo := &repository.DispatchRepository{DB: db.DB}
	contactRepo := &repository.ContactRepository{DB: db.DB}
	userRepo := &repository.UserRepository{DB: db.DB}
	messageRepo := &repository.MessageRepository{DB: db.DB}
	appointmentRepo := &repository.AppointmentRepository{DB: db.DB}

	var sender gateway.Sender
	if cfg.GatewayAPIKey == "" {
		log.Warn("no gateway API key configured, using mock sender")
		sender = gateway.NewMockGateway()
	} else {
		sender = gateway.NewHTTPGateway(cfg.GatewayURL, cfg.GatewayAPIKey, cfg.GatewayRatePerSecond)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQPEnabled {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer p.Close()
		publisher = p
	}

	poller := &service.CampaignPoller{
		Campaigns:  campaignRepo,
		Dispatches: dispatchRepo,
		Resolver: &service.RecipientResolver{
			Campaigns: campaignRepo,
			Contacts:  contactRepo,
			Users:     userRepo,
			Log:       log,
		},
		Dispatcher: &service.Dispatcher{
			Gateway:  sender,
			Messages: messageRepo,
			Log:      log,
		},
		Events:          publisher,
		BatchSize:       cfg.CampaignBatchSize,
		RetryFailed:     cfg.RetryFailedCampaigns,
		DefaultSenderID: cfg.DefaultSenderID,
		Log:             log,
	}
	notifier := &service.AppointmentNotifier{
		Appointments: appointmentRepo,
		Messages:     messageRepo,
		Gateway:      sender,
		Config: service.NotifierConfig{
			ReminderLead:         time.Duration(cfg.ReminderLeadMinutes) * time.Minute,
			FollowUpDelay:        time.Duration(cfg.FollowUpMinutes) * time.Minute,
			GraceWindow:          time.Duration(cfg.GraceWindowMinutes) * time.Minute,
			SenderID:             cfg.DefaultSenderID,
			RenderTimezone:       cfg.RenderTimezone,
			ConfirmationTemplate: cfg.ConfirmationTemplate,
			ReminderTemplate:     cfg.ReminderTemplate,
			CancellationTemplate: cfg.CancellationTemplate,
			FollowUpTemplate:     cfg.FollowUpTemplate,
		},
		BatchSize: cfg.AppointmentBatchSize,
		Log:       log,
	}

	campaignScheduler := scheduler.New("campaigns", cfg.CampaignPollInterval, poller.ProcessDueCampaignsOnce, log)
	appointmentScheduler := scheduler.New("appointments", cfg.AppointmentPollInterval, notifier.ProcessDueNotificationsOnce, log)

	if cfg.CampaignSchedulerEnabled {
		campaignScheduler.Start()
	}
	if cfg.AppointmentSchedulerEnabled {
		appointmentScheduler.Start()
	}

	log.Info("scheduler process running, waiting for ticks")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	campaignScheduler.Stop()
	appointmentScheduler.Stop()
}
