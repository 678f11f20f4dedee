package commands

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gerunddev/blockbridge/internal/config"
	"github.com/gerunddev/blockbridge/internal/logger"
	"github.com/gerunddev/blockbridge/internal/notion"
	"github.com/gerunddev/blockbridge/internal/parser"
	"github.com/gerunddev/blockbridge/internal/state"
)

// app bundles what every command needs
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	parser    *parser.Parser
	state     *state.State
	statePath string
	cleanup   func()
}

// loadApp loads configuration and state and sets up logging
func loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	l, cleanup := openLogger(cfg, verbose, cmd)

	statePath := config.StateFilePath()
	st, err := state.Load(statePath)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	l.ConfigLoaded(config.ConfigPath(), cfg.APIBaseURL, cfg.RequestInterval)

	return &app{
		cfg: cfg,
		log: l,
		parser: parser.New(
			parser.WithLogger(l),
			parser.WithEmbedDomains(cfg.EmbedDomains),
		),
		state:     st,
		statePath: statePath,
		cleanup:   cleanup,
	}, nil
}

// openLogger logs to the configured file, and to stderr as well when
// verbose. A log file that cannot be opened disables file logging.
func openLogger(cfg *config.Config, verbose bool, cmd *cobra.Command) (*logger.Logger, func()) {
	level := logger.ParseLevel(cfg.LogLevel)

	if !verbose {
		l, cleanup, err := logger.NewFileLogger(cfg.LogFile, level)
		if err != nil {
			return logger.Discard(), func() {}
		}
		return l, cleanup
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return logger.NewWithLevel(cmd.ErrOrStderr(), log.DebugLevel), func() {}
	}
	return logger.NewMultiLogger(log.DebugLevel, f, cmd.ErrOrStderr()), func() { f.Close() }
}

// client builds a Notion client from the configuration
func (a *app) client() (*notion.Client, error) {
	if a.cfg.Token == "" {
		return nil, fmt.Errorf("no Notion token configured: set %s or \"token\" in %s", config.TokenEnv, config.ConfigPath())
	}
	return notion.NewClient(a.cfg.Token,
		notion.WithBaseURL(a.cfg.APIBaseURL),
		notion.WithVersion(a.cfg.NotionVersion),
		notion.WithRequestInterval(a.cfg.RequestInterval),
		notion.WithLogger(a.log),
	), nil
}

// saveState writes the state file, logging failures
func (a *app) saveState() error {
	if err := a.state.Save(a.statePath); err != nil {
		a.log.StateError("save", err)
		return err
	}
	return nil
}

func (a *app) close() {
	a.cleanup()
}
