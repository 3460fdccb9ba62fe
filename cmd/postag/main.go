package main

import (
	"fmt"
	"os"

	"postag-go/internal/config"
	"postag-go/internal/service"
	"postag-go/internal/service/ngram"

	"github.com/gonuts/commander"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	appConfigPath   string
	modelConfigPath string
	logger          *zap.Logger
)

var rootCmd = &commander.Command{
	UsageLine: os.Args[0] + " <command> [options]",
	Short:     "n-gram language models and an HMM part-of-speech tagger",
}

func init() {
	rootCmd.Subcommands = []*commander.Command{
		CountCmd(),
		LanguageModelCmd(),
		TrainCmd(),
		TagCmd(),
		EvalCmd(),
		ServeCmd(),
	}
	for _, cmd := range rootCmd.Subcommands {
		cmd.Flag.StringVar(&appConfigPath, "app", "", "Path to app configuration file")
		cmd.Flag.StringVar(&modelConfigPath, "models", "", "Path to model configuration overlay")
	}
}

func main() {
	err := rootCmd.Dispatch(os.Args[1:])
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "**err**: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration named by the shared flags and builds the
// logger every command writes to.
func setup() (*config.Config, error) {
	cfg := config.Default()
	if appConfigPath != "" {
		loaded, err := config.LoadConfig(appConfigPath, modelConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	l, err := newLogger(cfg.App)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	logger.Debug("Configuration loaded successfully", zap.Any("config", cfg))
	return cfg, nil
}

func newLogger(app config.AppConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(app.LogLevel)
	if err != nil {
		return nil, err
	}
	cfgZap := zap.NewProductionConfig()
	cfgZap.Level.SetLevel(level)
	// stdout carries command output
	cfgZap.OutputPaths = []string{"stderr"}
	if app.LogFile != "" {
		cfgZap.OutputPaths = append(cfgZap.OutputPaths, app.LogFile)
	}
	return cfgZap.Build()
}

func newService(cfg *config.Config) (*service.TaggingService, error) {
	store, err := ngram.NewModelStore(cfg.App.ModelDir, logger)
	if err != nil {
		return nil, err
	}
	return service.NewTaggingService(cfg, store, logger), nil
}
