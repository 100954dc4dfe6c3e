package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/autolabel/config"
	"github.com/s0up4200/autolabel/labeler"
	"github.com/s0up4200/autolabel/qbittorrent"
	"github.com/s0up4200/autolabel/store"
)

var (
	cfgFile   string
	cfg       *config.Config
	logger    zerolog.Logger
	ruleStore *store.RuleStore
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "autolabel",
	Short: "Label new qBittorrent torrents from ordered regex rules",
	Long: `autolabel watches qBittorrent for newly added torrents and assigns a label
(category or tag) from the first rule whose regex matches the torrent name.

Rules are kept in an ordered list and can be managed from the command line
or over the HTTP API started by "autolabel run".`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}

// initializeApp loads the configuration, sets up logging and opens the rule store
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	ruleStore, err = openStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open rule store: %w", err)
	}

	return nil
}

// closeApp releases the rule store
func closeApp(cmd *cobra.Command, args []string) error {
	if ruleStore == nil {
		return nil
	}
	return ruleStore.Close()
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// openStore builds the rule store for the configured backend
func openStore(cfg config.StoreConfig) (*store.RuleStore, error) {
	codec, err := store.CodecFor(cfg.Format)
	if err != nil {
		return nil, err
	}

	var backend store.Backend
	switch cfg.Backend {
	case "sqlite":
		backend, err = store.NewSQLiteBackend(cfg.Path)
	default:
		backend, err = store.NewFileBackend(cfg.Path, codec.Ext())
	}
	if err != nil {
		return nil, err
	}

	return store.NewRuleStore(backend, codec, cfg.Name, logger), nil
}

// connect logs in to qBittorrent
func connect() (*qbittorrent.Client, error) {
	mode, err := qbittorrent.ParseLabelMode(cfg.Labels.Mode)
	if err != nil {
		return nil, err
	}

	opts := []qbittorrent.Option{
		qbittorrent.WithTimeout(cfg.QBittorrent.Timeout),
		qbittorrent.WithLabelMode(mode),
		qbittorrent.WithRateLimit(cfg.QBittorrent.RateLimit, cfg.QBittorrent.Burst),
	}
	if cfg.QBittorrent.BasicUser != "" {
		opts = append(opts, qbittorrent.WithBasicAuth(cfg.QBittorrent.BasicUser, cfg.QBittorrent.BasicPass))
	}
	if cfg.QBittorrent.InsecureSkipVerify {
		opts = append(opts, qbittorrent.WithInsecureSkipVerify())
	}

	client, err := qbittorrent.NewClient(
		cfg.QBittorrent.URL,
		cfg.QBittorrent.Username,
		cfg.QBittorrent.Password,
		logger,
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create qBittorrent client: %w", err)
	}
	return client, nil
}

// newService wires the labeler and its RPC surface. client may be nil for
// commands that only edit rules.
func newService(ctx context.Context, client *qbittorrent.Client) (*labeler.Service, *labeler.Labeler) {
	settings := ruleStore.Load(ctx)

	opts := []labeler.Option{labeler.WithLowercase(cfg.Labels.Lowercase)}
	var sink labeler.LabelSink = offlineSink{}
	if client != nil {
		sink = client
		opts = append(opts, labeler.WithTorrentSource(client))
	}

	l := labeler.New(sink, settings, logger, opts...)
	svc := labeler.NewService(l, ruleStore, logger, labeler.WithConcurrency(cfg.Apply.Concurrency))
	return svc, l
}
