package cli

import (
	"context"
	"errors"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/giygas/smpc-comparator/config"
	"github.com/giygas/smpc-comparator/data"
	"github.com/giygas/smpc-comparator/fieldnames"
	"github.com/giygas/smpc-comparator/handlers"
	"github.com/giygas/smpc-comparator/health"
	"github.com/giygas/smpc-comparator/logging"
	"github.com/giygas/smpc-comparator/scheduler"
	"github.com/giygas/smpc-comparator/server"
	"github.com/giygas/smpc-comparator/smpcclient"
	"github.com/giygas/smpc-comparator/validation"
)

// shutdownTimeout bounds the graceful shutdown of the HTTP server
const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server", "start"},
		Short:   "Serve the comparator page and the JSON API",
		Long: heredoc.Doc(`
			Serve the comparator on ADDRESS:PORT.

			The records are fetched from SMPC_API_URL when the server starts and
			again at every REFRESH_SCHEDULE time. The page answers with a loading
			notice until the first fetch completes.
		`),
		Example: heredoc.Doc(`
			$ smpc serve
			$ PORT=9000 REFRESH_SCHEDULE="06:00;18:00" smpc serve
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, names, cleanup, err := setup(cmd, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer cleanup()
			return runServer(cmd.Context(), cfg, names)
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config, names *fieldnames.Registry) error {
	logging.Info("smpc comparator starting", "version", Version, "env", cfg.Env, "upstream", cfg.SMPCAPIURL)

	store := data.NewDataContainer()
	store.SetServerStartTime(time.Now())

	client := smpcclient.NewClient(cfg.SMPCAPIURL, cfg.FetchTimeout, cfg.MaxUpstreamBody)
	sched := scheduler.NewScheduler(store, client, cfg.Schedule(), cfg.FetchTimeout)
	checker := health.NewHealthChecker(store, cfg.RefreshTimes)
	handler := handlers.NewHTTPHandler(store, validation.NewDataValidator(), names, checker)
	srv := server.NewServer(cfg, handler)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	// the first fetch runs next to the listener so the loading page is served
	g.Go(func() error {
		return sched.Start(gctx)
	})

	if cfg.FieldNamesFile != "" {
		g.Go(func() error {
			return names.Watch(gctx, cfg.FieldNamesFile)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		sched.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info("Server exited gracefully")
	return nil
}
