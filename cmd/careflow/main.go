package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/telekom/careflow/pkg/api"
	"github.com/telekom/careflow/pkg/config"
	"github.com/telekom/careflow/pkg/emergency"
	"github.com/telekom/careflow/pkg/episode"
	"github.com/telekom/careflow/pkg/escalation"
	"github.com/telekom/careflow/pkg/mail"
	"github.com/telekom/careflow/pkg/notify"
	"github.com/telekom/careflow/pkg/system"
	"github.com/telekom/careflow/pkg/validation"
	"github.com/telekom/careflow/pkg/version"
)

const queueStatusInterval = 15 * time.Minute

func main() {
	var (
		debug      bool
		configPath string
	)
	flag.BoolVar(&debug, "debug", false, "enable debug level logging")
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	zl := system.SetupLogger(debug)
	log := zl.Sugar()
	log.With("version", version.Version).Info("Starting careflow workflow engine")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Error loading careflow config: %v", err)
	}
	if debug {
		log.Infof("%#v", cfg)
	}

	episodes := episode.NewMemoryStore()

	var protocols escalation.ProtocolStore
	if cfg.Policy.EmbeddedEscalationStorage {
		protocols = escalation.NewEmbeddedStore(episodes)
		log.Info("Using episode-embedded escalation storage")
	} else {
		protocols = escalation.NewTableStore()
	}

	var bus notify.Bus
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaBus, err := notify.NewKafkaBus(cfg.Kafka, zl)
		if err != nil {
			log.Fatalf("Error creating kafka notification bus: %v", err)
		}
		bus = kafkaBus
		log.Infow("Kafka notification bus enabled", "brokers", cfg.Kafka.Brokers)
	} else {
		bus = notify.NewMemoryBus()
		log.Warn("No kafka brokers configured; notifications stay in memory")
	}

	var personal notify.PersonalSender
	var mailQueue *mail.Queue
	if cfg.Mail.Host != "" {
		sender := mail.NewSender(cfg.Mail, log)
		mailQueue = mail.NewQueue(sender, log, cfg.Mail.RetryCount, cfg.Mail.RetryBackoffMs, cfg.Mail.QueueSize)
		mailQueue.Start()
		personal = mailQueue
		log.Infow("Personal supervisor mail fan-out enabled", "host", cfg.Mail.Host)
	} else {
		log.Info("No mail host configured; personal supervisor fan-out disabled")
	}

	dispatcher := notify.NewDispatcher(bus, personal, cfg.Mail.SupervisorDomain, log)

	assessor := escalation.NewAssessor(cfg.Policy)
	escalations := escalation.NewCoordinator(episodes, protocols, cfg.Policy, dispatcher, log)
	emergencies := emergency.NewCoordinator(episodes, cfg.Policy, dispatcher, log)
	validations := validation.NewManager(episodes, escalations, dispatcher, log)

	server := api.NewServer(zl, cfg, debug)
	err = server.RegisterAll([]api.APIController{
		episode.NewController(log, episodes),
		validation.NewController(log, validations),
		escalation.NewController(log, escalations, assessor, episodes),
		emergency.NewController(log, emergencies),
	})
	if err != nil {
		log.Fatalf("Error registering careflow controllers: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Timeout sweep; the cadence must stay below the smallest level timeout.
	go func() {
		interval := time.Duration(cfg.Policy.SweepIntervalSeconds) * time.Second
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := escalations.CheckEscalationTimeouts(ctx); err != nil {
					log.Errorw("Escalation timeout sweep failed", "error", err)
				}
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(queueStatusInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := validations.PublishQueueStatus(ctx); err != nil {
					log.Warnw("Queue status publish failed", "error", err)
				}
			}
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Listen()
	}()
	log.Infow("Careflow API listening", "address", cfg.Server.ListenAddress)

	select {
	case err := <-serveErr:
		if err != nil {
			log.Fatalf("API server failed: %v", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnw("API server shutdown failed", "error", err)
	}
	if mailQueue != nil {
		if err := mailQueue.Stop(shutdownCtx); err != nil {
			log.Warnw("Mail queue drain failed", "error", err)
		}
	}
	if err := bus.Close(); err != nil {
		log.Warnw("Notification bus close failed", "error", err)
	}
	log.Info("Careflow stopped")
}
