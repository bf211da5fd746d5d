// Package root contains the root command for the application
package root

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"fjacquet/case-categorizer/internal/config"
	"fjacquet/case-categorizer/internal/container"
	"fjacquet/case-categorizer/internal/logging"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Input  string
	Output string
}

var (
	// Log is the shared logger instance for commands
	Log = logging.GetLogger()

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "case-categorizer",
		Short: "A CLI tool to categorize customer-service cases with an LLM.",
		Long: `case-categorizer reads a CSV or XLSX file of customer-service cases, asks an
LLM backend (openai, gemini, ollama or anthropic) to pick a product category
and a resolution type for each case, and exports the enriched rows.

The category and resolution lists are managed with the taxonomy command and
can also be served over HTTP with the serve command.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initialize,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to case-categorizer!")
			Log.Info("Use --help to see available commands")
		},
	}

	// SharedFlags holds the common flags accessible to all commands
	SharedFlags = CommonFlags{}

	// ConfigFile is an explicit configuration file path
	ConfigFile string

	// LogLevel overrides the configured log level
	LogLevel string

	appContainer *container.Container
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input file or directory")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file or directory")
	Cmd.PersistentFlags().StringVar(&ConfigFile, "config", "", "Config file (default: $HOME/.case-categorizer/config.yaml)")
	Cmd.PersistentFlags().StringVar(&LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
}

func initialize(cmd *cobra.Command, args []string) error {
	config.LoadEnv(Log)

	cfg, err := config.InitializeConfigFromFile(ConfigFile)
	if err != nil {
		return err
	}
	if LogLevel != "" {
		cfg.Log.Level = strings.ToLower(LogLevel)
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		return err
	}
	SetContainer(c)
	return nil
}

// SetContainer installs the dependency container and its logger.
func SetContainer(c *container.Container) {
	appContainer = c
	if c != nil {
		Log = c.GetLogger()
		logging.SetLogger(Log)
	}
}

// GetContainer returns the container built for the running command.
func GetContainer() *container.Container {
	return appContainer
}

// SignalContext returns a context cancelled on interrupt or termination.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
