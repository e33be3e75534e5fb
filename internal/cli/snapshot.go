package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lwiedman/portgraph/pkg/graphio"
	"github.com/lwiedman/portgraph/pkg/introspect"
)

// snapshotCommand creates the snapshot command.
func (c *CLI) snapshotCommand() *cobra.Command {
	var (
		endpoint string
		device   string
		output   string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Introspect a device once and write its topology as JSON",
		Example: `  portgraph snapshot
  portgraph snapshot -o topology.json
  portgraph snapshot --endpoint http://camhost:8421 --device det1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)
			start := time.Now()

			if endpoint == "" {
				endpoint = c.Config.Endpoint
			}
			if device == "" {
				device = c.Config.Device
			}

			opts := []introspect.ClientOption{
				introspect.WithLogger(c.Logger),
				introspect.WithDevice(device),
			}
			cc, err := c.newCache(cmd, noCache)
			if err != nil {
				c.Logger.Warn("cache unavailable, continuing without", "error", err)
			} else {
				defer func() { _ = cc.Close() }()
				opts = append(opts, introspect.WithCache(cc, introspect.DefaultSnapshotTTL))
			}
			client := introspect.NewClient(endpoint, opts...)

			spinner := newSpinnerWithContext(ctx, "introspecting "+device)
			spinner.Start()
			snap, err := client.Introspect(ctx)
			spinner.Stop()
			if err != nil {
				if spinner.Cancelled() {
					return ctx.Err()
				}
				printError("introspection failed: %v", err)
				return err
			}
			progress(c.Logger, "introspected device", start)

			if output == "" {
				return graphio.Write(snap, os.Stdout)
			}
			if err := graphio.WriteFile(snap, output); err != nil {
				return err
			}

			printSuccess("snapshot written")
			printFile(output)
			printStats(snap.PortCount(), snap.EdgeCount(), false)
			printNextStep("render it", "portgraph render "+output)
			return nil
		},
	}

	cmd.Flags().StringVar(&endpoint, "endpoint", "", "device topology endpoint (overrides config)")
	cmd.Flags().StringVar(&device, "device", "", "device name (overrides config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the snapshot cache")

	return cmd
}
