package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hray3182/Hydrate/internal/ai"
	"github.com/hray3182/Hydrate/internal/bot"
	"github.com/hray3182/Hydrate/internal/config"
	"github.com/hray3182/Hydrate/internal/rrule"
	"github.com/spf13/cobra"
)

var (
	envFile string
	devMode bool
)

var rootCmd = &cobra.Command{
	Use:          "hydrate",
	Short:        "Telegram bot that counts glasses of water and reminds you to drink",
	SilenceUsage: true,
	RunE:         runBot,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFile, "env", "e", "", "Path to a .env file (default: ./.env if present)")
	rootCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode (short test intervals, Telegram debug logs)")
}

func loadConfig() (*config.Config, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}
	if devMode {
		cfg.DevMode = true
	}
	return cfg, cfg.Validate()
}

func runBot(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return err
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Initialize AI client (optional)
	var aiClient *ai.Client
	if cfg.AIAPIKey != "" {
		aiClient = ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
		log.Printf("AI client initialized (model: %s)", cfg.AIModel)
	} else {
		log.Println("AI client not configured, reminders use the built-in text")
	}

	if cfg.DayResetRule != "" {
		log.Printf("Daily count resets %s", rrule.Describe(cfg.DayResetRule))
	}
	if quiet := cfg.Quiet(); quiet.Enabled() {
		log.Printf("Quiet hours %s - %s", quiet.Start, quiet.End)
	}

	// Create and start bot
	b, err := bot.New(cfg, aiClient)
	if err != nil {
		log.Printf("Failed to create bot: %v", err)
		return err
	}

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		cancel()
	}()

	log.Println("Starting bot...")
	if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Bot error: %v", err)
		return err
	}
	return nil
}
