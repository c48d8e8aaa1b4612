package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"feedbackbot/admission"
	"feedbackbot/bot"
	"feedbackbot/config"
	"feedbackbot/conversation"
	"feedbackbot/db"
	"feedbackbot/events"
	"feedbackbot/handler"
	"feedbackbot/handler/admin"
	"feedbackbot/handler/feedback"
	"feedbackbot/logger"
	"feedbackbot/moderation"
	"feedbackbot/transport"
	"feedbackbot/watermark"

	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "feedbackbot:", err)
		os.Exit(1)
	}
}

func run() error {
	path := "."
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{Development: cfg.Log.Development, Level: cfg.Log.Level})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	store, err := db.Open(ctx, cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	var limits admission.Store = store
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		limits = admission.NewRedisStore(rdb, cfg.Feedback.Cooldown)
		log.Infow("using redis for rate limits", "addr", cfg.Redis.Addr)
	}
	gate := admission.NewController(limits, cfg.Feedback.Cooldown)

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		log.Infow("emitting moderation events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	defer publisher.Close()

	b, err := bot.New(cfg.Token, cfg.Commands.AllowGuilds, log)
	if err != nil {
		return err
	}

	fetcher := transport.NewAttachmentFetcher(b.Session(), transport.NewHTTPFetcher(cfg.Watermark.MaxFetchBytes))
	sender := transport.NewDiscord(b.Session(), fetcher, log)

	coord := moderation.NewCoordinator(moderation.Deps{
		Auth:        moderation.NewAuthorizer(cfg.Moderation.Moderators, cfg.Moderation.AdminRoles),
		Store:       store,
		Sender:      sender,
		Fetcher:     fetcher,
		Transformer: watermark.NewPipeline(cfg.Watermark, log),
		Events:      publisher,
	}, cfg.Moderation, log)

	machine := conversation.NewMachine(gate, store, coord, cfg.Feedback.InactivityTimeout, log)
	go machine.Run(ctx)

	router := handler.NewRouter(log)
	feedback.New(machine, gate, sender, cfg.Feedback.AlbumDebounce, log).Register(router)
	admin.New(coord, log).Register(router)

	return b.Run(ctx, router)
}
