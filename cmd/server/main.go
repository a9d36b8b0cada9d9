// cmd/server/main.go
package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bulkwave/bulkwave-backend/internal/config"
	"github.com/bulkwave/bulkwave-backend/internal/controller"
	"github.com/bulkwave/bulkwave-backend/internal/db"
	"github.com/bulkwave/bulkwave-backend/internal/events"
	"github.com/bulkwave/bulkwave-backend/internal/gateway"
	"github.com/bulkwave/bulkwave-backend/internal/repository"
	"github.com/bulkwave/bulkwave-backend/internal/scheduler"
	"github.com/bulkwave/bulkwave-backend/internal/service"
	"github.com/bulkwave/bulkwave-backend/pkg/logger"
)

func main() {
	// Load .env
	godotenv.Load()

	cfg := config.Load()
	log, err := logger.Init(cfg.LogPath)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Init DB
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

	resolver := &service.RecipientResolver{
		Campaigns: campaignRepo,
		Contacts:  contactRepo,
		Users:     userRepo,
		Log:       log,
	}
	dispatcher := &service.Dispatcher{
		Gateway:  sender,
		Messages: messageRepo,
		Log:      log,
	}
	poller := &service.CampaignPoller{
		Campaigns:       campaignRepo,
		Dispatches:      dispatchRepo,
		Resolver:        resolver,
		Dispatcher:      dispatcher,
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
			ReminderLead:         minutes(cfg.ReminderLeadMinutes),
			FollowUpDelay:        minutes(cfg.FollowUpMinutes),
			GraceWindow:          minutes(cfg.GraceWindowMinutes),
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
		defer campaignScheduler.Stop()
	}
	if cfg.AppointmentSchedulerEnabled {
		appointmentScheduler.Start()
		defer appointmentScheduler.Stop()
	}

	campaignController := &controller.CampaignController{
		Campaigns: campaignRepo,
		Resolver:  resolver,
		Poller:    poller,
		Log:       log,
	}
	appointmentController := &controller.AppointmentController{
		Appointments: appointmentRepo,
		Notifier:     notifier,
		Log:          log,
	}

	r := chi.NewRouter()

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Post("/campaigns/{id}/dispatch", campaignController.DispatchCampaign)
	r.Get("/campaigns/{id}/recipients", campaignController.ResolveRecipients)
	r.Post("/scheduler/campaigns/run-once", campaignController.RunTick)

	// Appointment routes
	r.Post("/appointments", appointmentController.CreateAppointment)
	r.Post("/appointments/{id}/cancel", appointmentController.CancelAppointment)
	r.Post("/scheduler/appointments/run-once", appointmentController.RunTick)

	log.Info("server running", zap.String("addr", cfg.ListenAddr))
	if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
