package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sketchlift/internal/server"
	"github.com/matzehuels/sketchlift/pkg/httputil"
	"github.com/matzehuels/sketchlift/pkg/store"
)

const defaultServeAddr = ":8080"

// serveCommand creates the serve command. It exposes the pipeline over
// HTTP with the configured cache and optional Mongo-backed store.
func (c *CLI) serveCommand() *cobra.Command {
	var addr, mongoURI string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP",
		Long: `Serve starts an HTTP server exposing validation and rendering
endpoints. When a Mongo URI is configured (via --mongo or the config
file), designs can additionally be persisted and listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" && c.Config != nil {
				addr = c.Config.Server.Addr
			}
			if addr == "" {
				addr = defaultServeAddr
			}
			if mongoURI == "" && c.Config != nil {
				mongoURI = c.Config.Server.MongoURI
			}
			return c.runServe(cmd.Context(), addr, mongoURI, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&mongoURI, "mongo", "", "MongoDB URI for the design store")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, mongoURI string, noCache bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := c.newRunner(noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	var st store.Store
	if mongoURI != "" {
		// Container setups often race the database; retry the first dial.
		err := httputil.RetryWithBackoff(ctx, func() error {
			s, err := store.NewMongoStore(ctx, mongoURI)
			if err != nil {
				return &httputil.RetryableError{Err: err}
			}
			st = s
			return nil
		})
		if err != nil {
			return err
		}
		defer st.Close(context.Background())
		c.Logger.Info("design store connected")
	}

	srv := server.New(server.Config{
		Addr:   addr,
		Runner: runner,
		Store:  st,
		Logger: c.Logger,
	})
	return srv.ListenAndServe(ctx)
}
