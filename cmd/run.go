package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/autolabel/qbittorrent"
	"github.com/s0up4200/autolabel/server"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch qBittorrent and label new torrents",
	Long: `Run as a daemon. New torrents are picked up by polling qBittorrent
(watcher.enabled) or through POST /api/v1/events/torrent-added when the HTTP
server is enabled, and labeled by the first matching rule.`,
	PreRunE:  initializeApp,
	RunE:     runDaemon,
	PostRunE: closeApp,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if !cfg.Watcher.Enabled && !cfg.Server.Enabled {
		return fmt.Errorf("nothing to run: enable watcher.enabled or server.enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := connect()
	if err != nil {
		return err
	}

	if version, err := client.Version(ctx); err == nil {
		logger.Info().Str("version", version).Str("mode", string(client.Mode())).Msg("Connected to qBittorrent")
	}

	svc, l := newService(ctx, client)
	rules := svc.GetRules()
	logger.Info().Int("rules", len(rules)).Msg("Loaded labeling rules")

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Watcher.Enabled {
		watcher := qbittorrent.NewWatcher(client, cfg.Watcher.Interval, logger)
		l.Listen(watcher)
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	if cfg.Server.Enabled {
		hook := server.NewWebhook()
		l.Listen(hook)

		opts := []server.Option{server.WithWebhook(hook)}
		if cfg.Server.APIKey != "" {
			opts = append(opts, server.WithAPIKey(cfg.Server.APIKey))
		}
		srv := server.New(svc, logger, opts...)

		g.Go(func() error {
			return hook.Run(gctx)
		})
		g.Go(func() error {
			return srv.ListenAndServe(gctx, cfg.Server.Listen)
		})
	}

	err = g.Wait()
	logger.Info().Msg("Shutting down")
	return err
}
