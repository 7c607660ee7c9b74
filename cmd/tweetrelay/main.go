package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"tweetrelay/internal/web"
	"tweetrelay/pkg/auth"
	"tweetrelay/pkg/config"
	"tweetrelay/pkg/lock"
	"tweetrelay/pkg/logger"
	"tweetrelay/pkg/relay"
	"tweetrelay/pkg/scheduler"
	"tweetrelay/pkg/store"
	"tweetrelay/pkg/telegram"
	"tweetrelay/pkg/twitter"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	login      = flag.Bool("login", false, "Store API credentials and exit")
	logout     = flag.Bool("logout", false, "Remove stored API credentials and exit")
	once       = flag.Bool("once", false, "Run a single check cycle and exit")
)

func main() {
	flag.Parse()

	if *login {
		if err := runLogin(); err != nil {
			fmt.Fprintln(os.Stderr, "login failed:", err)
			os.Exit(1)
		}
		return
	}
	if *logout {
		if err := runLogout(); err != nil {
			fmt.Fprintln(os.Stderr, "logout failed:", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	logger.Initialize(&cfg.Logging)
	log := logger.GetLogger()
	log.Info("tweetrelay starting")

	fillCredentials(cfg, log)

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	client := twitter.NewClient(cfg.Twitter.BearerToken, twitter.Options{
		BaseURL:        cfg.Twitter.BaseURL,
		PageSize:       cfg.Twitter.PageSize,
		MinCallSpacing: cfg.RateLimit.MinCallSpacing,
		Cooldown:       cfg.RateLimit.Cooldown,
	}, log)

	sender, err := telegram.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.DocumentThreshold, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to Telegram")
	}

	st := store.New(cfg.Storage.ProcessedFile, log)
	lk, err := lock.New(cfg.Storage.LockFile)
	if err != nil {
		log.WithError(err).Fatal("failed to prepare execution lock")
	}

	rel := relay.New(cfg, client, sender, st, lk, log)

	if *once {
		count, err := rel.CheckAndForward()
		if err != nil {
			log.WithError(err).Fatal("check failed")
		}
		log.WithField("forwarded", count).Info("check complete")
		return
	}

	worker := scheduler.NewWorker(rel.CheckAndForward, cfg.Polling.Interval, cfg.Polling.RecoveryDelay, log)
	if err := worker.Start(); err != nil {
		log.WithError(err).Fatal("failed to start worker")
	}

	if cfg.Web.Enabled {
		srv := web.New(cfg.Web.Addr, worker, log)
		if err := srv.Start(); err != nil {
			log.WithError(err).Fatal("web front-end stopped")
		}
		return
	}

	// Without the web front-end the worker is all there is; block forever.
	select {}
}

// fillCredentials backfills tokens missing from the config from the
// credential store chain. Config and environment values win.
func fillCredentials(cfg *config.Config, log logger.Logger) {
	if cfg.Twitter.BearerToken != "" && cfg.Telegram.BotToken != "" {
		return
	}

	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Debug("credential store unavailable")
		return
	}

	creds, err := manager.Retrieve(auth.DefaultProfile)
	if err != nil {
		log.WithError(err).Debug("no stored credentials")
		return
	}

	if cfg.Twitter.BearerToken == "" {
		cfg.Twitter.BearerToken = creds.TwitterBearer
	}
	if cfg.Telegram.BotToken == "" {
		cfg.Telegram.BotToken = creds.TelegramBotToken
	}
	if cfg.Telegram.ChatID == 0 && creds.TelegramChatID != "" {
		if id, err := strconv.ParseInt(creds.TelegramChatID, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}

	log.Info("credentials loaded from secure storage")
}
