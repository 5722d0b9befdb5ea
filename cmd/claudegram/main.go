// Command claudegram bridges Telegram chats to the Claude Code CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/claudegram/claudegram/bot"
	"github.com/claudegram/claudegram/cli"
	"github.com/claudegram/claudegram/config"
	"github.com/claudegram/claudegram/logger"
	"github.com/claudegram/claudegram/process"
	"github.com/claudegram/claudegram/relay"
	"github.com/claudegram/claudegram/runner"
	"github.com/claudegram/claudegram/session"
	"github.com/claudegram/claudegram/skills"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	configPath := flag.String("config", "", "path to config file (default: XDG config dir)")
	flag.Parse()

	if err := run(*debug, *configPath); err != nil {
		fmt.Fprintln(os.Stderr, "claudegram:", err)
		os.Exit(1)
	}
}

func run(debug bool, configPath string) error {
	var cfg *config.Bridge
	var err error
	if configPath != "" {
		cfg, err = config.LoadBridgeFrom(configPath)
	} else {
		cfg, err = config.LoadBridge()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if debug {
		cfg.Debug = true
	}

	logPath, err := logger.DefaultLogPath()
	if err != nil {
		return fmt.Errorf("resolving log path: %w", err)
	}
	if err := logger.Init(logPath); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Close()
	logger.SetDebug(cfg.Debug)
	log := logger.Get()

	if err := cli.ValidateRequired(cli.Prerequisites(cfg.ClaudeBin)); err != nil {
		return err
	}

	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	owner, err := config.LoadOwner()
	if err != nil {
		return fmt.Errorf("loading owner: %w", err)
	}
	recents, err := config.LoadRecents()
	if err != nil {
		return fmt.Errorf("loading recents: %w", err)
	}

	registry, err := session.NewRegistry()
	if err != nil {
		return fmt.Errorf("creating session registry: %w", err)
	}
	if err := registry.Load(); err != nil {
		return fmt.Errorf("loading sessions: %w", err)
	}

	// Reap engine processes left over from a previous run before
	// accepting any traffic.
	if killed, err := process.CleanupOrphanedProcesses(registry.KnownTokens()); err != nil {
		log.Warn("orphan cleanup failed", "error", err)
	} else if killed > 0 {
		log.Info("cleaned up orphaned engine processes", "count", killed)
	}

	var skillList []skills.Skill
	if pluginsDir, err := skills.DefaultPluginsDir(); err != nil {
		log.Warn("plugins dir unavailable, skills menu disabled", "error", err)
	} else if skillList, err = skills.Discover(pluginsDir); err != nil {
		log.Warn("skill discovery failed, skills menu disabled", "error", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return fmt.Errorf("connecting to Telegram: %w", err)
	}
	log.Info("connected to Telegram", "bot", api.Self.UserName)

	engine := runner.NewCLIRunner(cfg)
	gate := relay.NewGate(registry, engine, settings, cfg)
	b := bot.New(bot.NewTransport(api), gate, registry, settings, owner, recents, skillList, cfg)

	if err := b.RegisterCommands(); err != nil {
		log.Warn("failed to register bot commands", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := api.GetUpdatesChan(u)

	log.Info("claudegram started", "work_dir", cfg.WorkDir)
	b.Run(ctx, updates)

	log.Info("shutting down")
	if err := registry.Persist(); err != nil {
		log.Error("failed to persist sessions on shutdown", "error", err)
	}
	return nil
}
