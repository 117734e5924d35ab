package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tshibata/link-digest/internal/config"
	"github.com/tshibata/link-digest/internal/discord"
	"github.com/tshibata/link-digest/internal/extract"
	"github.com/tshibata/link-digest/internal/logger"
	"github.com/tshibata/link-digest/internal/pipeline"
	"github.com/tshibata/link-digest/internal/publisher"
	"github.com/tshibata/link-digest/internal/summarizer"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run the pipeline once and exit")
	flag.Parse()

	// Best effort; the config file declares which variables it needs.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	runner := buildRunner(cfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Single-run mode: run the pipeline once and exit
	if *once {
		log.Info("running digest (once mode)")
		if err := runner.Run(ctx); err != nil {
			log.Fatal("pipeline failed", zap.Error(err))
		}
		log.Info("done")
		return
	}

	if cfg.RunOnStart {
		log.Info("running initial digest")
		if err := runner.Run(ctx); err != nil {
			log.Error("initial run failed", zap.Error(err))
		}
	}

	c := cron.New()
	_, err = c.AddFunc(cfg.Schedule, func() {
		log.Info("cron triggered, running digest")
		if err := runner.Run(ctx); err != nil {
			log.Error("scheduled run failed", zap.Error(err))
		}
	})
	if err != nil {
		log.Fatal("failed to set up cron schedule", zap.String("schedule", cfg.Schedule), zap.Error(err))
	}
	c.Start()
	log.Info("scheduled digest", zap.String("schedule", cfg.Schedule))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutting down", zap.String("signal", sig.String()))

	cancel()
	c.Stop()
	log.Info("shutdown complete")
}

// buildRunner wires the collaborators from configuration. All ambient
// state is read here, once; everything below gets explicit values.
func buildRunner(cfg *config.Config, log *zap.Logger) *pipeline.Runner {
	chat := discord.NewClient(cfg.Discord.Token)

	pages := extract.NewPageExtractor(cfg.Extractor.PageTimeout)

	jobs := cfg.Extractor.Jobs
	jobClient := extract.NewJobClient(jobs.BaseURL, jobs.Token, jobs.RequestTimeout)
	videos := extract.NewJobExtractor(jobClient,
		extract.NewVideoStrategy(jobs.VideoActor, pages),
		jobs.PollInterval, jobs.MaxPollAttempts, log.Named("video"))
	threads := extract.NewJobExtractor(jobClient,
		extract.NewThreadStrategy(jobs.ThreadActor),
		jobs.PollInterval, jobs.MaxPollAttempts, log.Named("thread"))

	extractor := extract.NewService(pages, videos, threads, cfg.Extractor.Workers, log.Named("extract"))

	s, err := summarizer.New(cfg.Summarizer)
	if err != nil {
		log.Fatal("failed to build summarizer", zap.Error(err))
	}

	var pubs []publisher.Publisher
	switch cfg.Publisher.Type {
	case "stdout":
		pubs = append(pubs, publisher.NewStdoutPublisher())
	case "email":
		e := cfg.Publisher.Email
		pubs = append(pubs, publisher.NewEmailPublisher(e.SMTPHost, e.SMTPPort, e.Username, e.Password, e.From, e.To))
	case "discord":
		pubs = append(pubs, publisher.NewDiscordPublisher(chat, cfg.Discord.SummaryChannelID))
	default:
		log.Fatal("unknown publisher type", zap.String("type", cfg.Publisher.Type))
	}

	return pipeline.New(
		chat,
		cfg.Discord.ChannelIDs,
		cfg.Discord.MessageLimit,
		cfg.Window(),
		extractor,
		s,
		pubs,
		log.Named("pipeline"),
	)
}
