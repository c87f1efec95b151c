package cli

import (
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/phishlens/phishlens/internal/config"
	"github.com/phishlens/phishlens/internal/predict"
	"github.com/phishlens/phishlens/internal/server"
	"github.com/phishlens/phishlens/internal/urlnorm"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	backend    string
	timeout    time.Duration
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand creates and returns the root cobra command
func NewRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "phishlens",
		Short: "Check URLs against a phishing prediction service",
		Long: `PhishLens normalizes a URL, asks a remote prediction service how likely
it is to be phishing, maps the probability to a risk tier and renders the
model's SHAP explanation as charts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to configuration file (optional)")
	flags.StringVar(&a.backend, "backend", "", "Prediction endpoint (overrides config)")
	flags.DurationVar(&a.timeout, "timeout", 0, "Prediction request timeout (overrides config)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newCheckCommand(a),
		newCheckTabCommand(a),
		newMessageCommand(a),
		newAnalyticsCommand(a),
		newServeCommand(a),
	)
	return cmd
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.backend != "" {
		cfg.Backend.URL = a.backend
	}
	if a.timeout > 0 {
		cfg.Backend.Timeout = a.timeout
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.logger = server.NewLogger(logOutput(cmd), cfg.LogLevel)
	return nil
}

// logOutput keeps stdout clean for command results; only serve logs there.
func logOutput(cmd *cobra.Command) io.Writer {
	if cmd.Name() == "serve" {
		return cmd.OutOrStdout()
	}
	return cmd.ErrOrStderr()
}

func (a *app) client() *predict.Client {
	return predict.NewClient(a.cfg.Backend.URL, a.cfg.Backend.Timeout)
}

func (a *app) normalizer() *urlnorm.Normalizer {
	return urlnorm.New(a.cfg.SearchEngines)
}
