package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Mickjrp/E-Commerce-Analytics/internal/config"
)

// app carries what every stage needs once flags and config are resolved.
type app struct {
	cfg   *config.Config
	runID string
	log   *slog.Logger
}

var (
	configPath   string
	logLevel     string
	logFormat    string
	askPasswords bool

	current *app
)

var rootCmd = &cobra.Command{
	Use:   "ecom-warehouse [command]",
	Short: "E-commerce warehouse ETL: MongoDB staging to PostgreSQL, plus RFM segmentation",
	Long: `Transforms staged marketplace documents from MongoDB into a normalized PostgreSQL
warehouse, runs advisory data quality checks and derives an RFM customer segmentation table.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (env ECOM_* and legacy PG_*/MONGO_* still apply)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Override log.format (text, json, auto)")
	rootCmd.PersistentFlags().BoolVar(&askPasswords, "ask-password", false, "Prompt for database passwords that are not configured")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if askPasswords {
		promptMissingPasswords(cfg)
	}

	runID := uuid.NewString()
	logger, err := newLogger(cfg.Log, os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
	if err != nil {
		return err
	}
	logger = logger.With("run_id", runID, "command", cmd.Name())
	slog.SetDefault(logger)

	current = &app{cfg: cfg, runID: runID, log: logger}
	return nil
}

// newLogger builds the process logger. Format "auto" picks text for an
// interactive terminal and JSON otherwise.
func newLogger(c config.Log, w io.Writer, tty bool) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(c.Format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", "auto":
		if tty {
			return slog.New(slog.NewTextHandler(w, opts)), nil
		}
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("invalid log format %q", c.Format)
}

func promptMissingPasswords(cfg *config.Config) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return
	}
	if cfg.Mongo.User != "" && cfg.Mongo.Password == "" {
		cfg.Mongo.Password = promptPassword(fmt.Sprintf("MongoDB password for %s: ", cfg.Mongo.User))
	}
	if cfg.Postgres.Password == "" {
		cfg.Postgres.Password = promptPassword(fmt.Sprintf("PostgreSQL password for %s: ", cfg.Postgres.User))
	}
}

func promptPassword(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		return strings.TrimSpace(line)
	}
	return string(pass)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
