package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/lwiedman/portgraph/internal/server"
	"github.com/lwiedman/portgraph/pkg/topo"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		endpoint string
		device   string
		interval time.Duration
		demo     bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the monitored topology over HTTP",
		Long: `Serve polls the device in the background and exposes the topology as
an HTTP API: current snapshot, computed layout, on-demand refresh, and
a server-sent event stream of changes.`,
		Example: `  portgraph serve
  portgraph serve --addr :9090 --demo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)

			in, name, done := c.introspector(ctx, cmd, endpoint, device, demo, noCache)
			defer done()

			mon := topo.NewMonitor(in, c.Logger)
			defer mon.Close()

			srv := server.NewWithOptions(mon, c.Logger,
				server.WithSpacing(c.Config.Layout.XSpacing, c.Config.Layout.YSpacing))
			defer srv.Close()

			if err := mon.Refresh(ctx); err != nil {
				c.Logger.Warn("initial refresh failed", "error", err)
			}

			go func() {
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						if err := mon.Refresh(ctx); err != nil {
							c.Logger.Warn("refresh failed", "error", err)
						}
					}
				}
			}()

			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = httpSrv.Shutdown(shutdownCtx)
			}()

			printInfo("serving %s on %s", StyleHighlight.Render(name), addr)
			printDetail("GET /api/topology · GET /api/layout · POST /api/refresh · GET /api/events")

			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return ctx.Err()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "device topology endpoint (overrides config)")
	cmd.Flags().StringVar(&device, "device", "", "device name (overrides config)")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "background poll interval")
	cmd.Flags().BoolVar(&demo, "demo", false, "use a simulated device instead of a live endpoint")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the snapshot cache")

	return cmd
}
