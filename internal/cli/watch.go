package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lwiedman/portgraph/pkg/introspect"
	"github.com/lwiedman/portgraph/pkg/topo"
)

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		endpoint string
		device   string
		interval time.Duration
		demo     bool
		tui      bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a device and stream port topology changes",
		Long: `Watch polls the device topology at a fixed interval and prints every
change as a discrete event: edges disconnected, ports removed, ports
added, edges connected. Trackable ports are also subscribed to, so a
rewiring on the device triggers an immediate refresh between polls.

With --demo a simulated device is wired up instead of a live endpoint,
and ports are added, rewired, and removed on a schedule.`,
		Example: `  portgraph watch
  portgraph watch --endpoint http://camhost:8421 --interval 5s
  portgraph watch --demo --tui`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)

			in, name, done := c.introspector(ctx, cmd, endpoint, device, demo, noCache)
			defer done()

			mon := topo.NewMonitor(in, c.Logger)
			defer mon.Close()

			if tui {
				return c.runWatchTUI(ctx, mon, name, interval)
			}

			printInfo("watching %s (interval %s, ctrl-c to stop)", StyleHighlight.Render(name), interval)

			mon.Subscribe(&eventPrinter{})

			if err := mon.Refresh(ctx); err != nil {
				printWarning("initial refresh failed: %v", err)
			} else {
				snap := mon.Current()
				printStats(snap.PortCount(), snap.EdgeCount(), false)
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					if err := mon.Refresh(ctx); err != nil {
						c.Logger.Warn("refresh failed", "error", err)
					}
				}
			}
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", "", "device topology endpoint (overrides config)")
	cmd.Flags().StringVar(&device, "device", "", "device name (overrides config)")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "poll interval")
	cmd.Flags().BoolVar(&demo, "demo", false, "use a simulated device instead of a live endpoint")
	cmd.Flags().BoolVar(&tui, "tui", false, "interactive terminal UI")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the snapshot cache")

	return cmd
}

// introspector builds the configured introspector: a live HTTP client,
// or a self-mutating simulated device in demo mode. The returned func
// releases any resources held by the introspector.
func (c *CLI) introspector(ctx context.Context, cmd *cobra.Command, endpoint, device string, demo, noCache bool) (topo.Introspector, string, func()) {
	if device == "" {
		device = c.Config.Device
	}
	if endpoint == "" {
		endpoint = c.Config.Endpoint
	}

	if demo {
		dev := introspect.NewSimDevice(device)
		dev.SetLogger(loggerFromContext(ctx))
		stop := startDemoScript(ctx, dev)
		return dev, device + " (demo)", stop
	}

	opts := []introspect.ClientOption{
		introspect.WithLogger(c.Logger),
		introspect.WithDevice(device),
	}
	cc, err := c.newCache(cmd, noCache)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "error", err)
	} else {
		opts = append(opts, introspect.WithCache(cc, introspect.DefaultSnapshotTTL))
	}

	client := introspect.NewClient(endpoint, opts...)
	done := func() {
		if cc != nil {
			_ = cc.Close()
		}
	}
	return client, device + " @ " + endpoint, done
}

// startDemoScript mutates the simulated device on a schedule so the
// watch loop has something to report. The logger travels in ctx.
// Returns a stop func.
func startDemoScript(ctx context.Context, dev *introspect.SimDevice) func() {
	logger := loggerFromContext(ctx)
	dev.AddCamera("cam1")
	dev.AddProcessor("stats1", "cam1")

	scriptCtx, cancel := context.WithCancel(ctx)
	go func() {
		steps := []func(){
			func() { dev.AddProcessor("roi1", "cam1") },
			func() { dev.AddProcessor("stats2", "roi1") },
			func() { _ = dev.SetSource("stats1", "stats2") },
			func() { dev.RemovePort("roi1") },
			func() { dev.AddCamera("cam2") },
			func() { _ = dev.SetSource("cam2", "stats2") },
			func() { dev.RemovePort("cam2") },
			func() { _ = dev.SetSource("cam1", "stats2") },
		}
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case <-scriptCtx.Done():
				return
			case <-ticker.C:
				steps[i%len(steps)]()
				logger.Debug("demo step applied", "step", i%len(steps))
				i++
			}
		}
	}()
	return cancel
}

// eventPrinter renders topology change events to stdout.
type eventPrinter struct{}

var _ topo.Listener = (*eventPrinter)(nil)

func (eventPrinter) PortAdded(name string)        { printAdded("port", name) }
func (eventPrinter) PortRemoved(name string)      { printRemoved("port", name) }
func (eventPrinter) EdgeAdded(src, dest string)   { printAdded("edge", fmtEdge(src, dest)) }
func (eventPrinter) EdgeRemoved(src, dest string) { printRemoved("edge", fmtEdge(src, dest)) }

func fmtEdge(src, dest string) string {
	return fmt.Sprintf("%s %s %s", src, iconArrow, dest)
}
