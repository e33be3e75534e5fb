package cli

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lwiedman/portgraph/pkg/cache"
	pgerrors "github.com/lwiedman/portgraph/pkg/errors"
	"github.com/lwiedman/portgraph/pkg/graphio"
	"github.com/lwiedman/portgraph/pkg/render"
)

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		format   string
		output   string
		detailed bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "render <snapshot.json>",
		Short: "Render a topology snapshot to DOT or SVG",
		Example: `  portgraph render topology.json
  portgraph render topology.json --format dot
  portgraph render topology.json -o wiring.svg --detailed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			input := args[0]

			if format != "dot" && format != "svg" {
				return pgerrors.New(pgerrors.ErrCodeInvalidFormat, "unsupported format: %s", format)
			}

			data, err := os.ReadFile(input)
			if err != nil {
				return pgerrors.Wrap(pgerrors.ErrCodeFileNotFound, err, "read snapshot %s", input)
			}
			snap, dropped, err := graphio.Unmarshal(data)
			if err != nil {
				return err
			}
			warnDropped(c, input, dropped)

			if output == "" {
				output = strings.TrimSuffix(input, ".json") + "." + format
			}

			opts := render.Options{Detailed: detailed}
			dot := render.ToDOT(snap, opts)

			var out []byte
			cached := false
			switch format {
			case "dot":
				out = []byte(dot)
			case "svg":
				cc, err := c.newCache(cmd, noCache)
				if err != nil {
					c.Logger.Warn("cache unavailable, continuing without", "error", err)
					cc = cache.NewNullCache()
				}
				defer func() { _ = cc.Close() }()

				key := cache.NewDefaultKeyer().ArtifactKey(cache.Hash([]byte(dot)), format)
				if hit, ok, err := cc.Get(cmd.Context(), key); err == nil && ok {
					out = hit
					cached = true
				} else {
					out, err = render.SVG(dot)
					if err != nil {
						return err
					}
					if err := cc.Set(cmd.Context(), key, out, 0); err != nil {
						c.Logger.Debug("failed to cache artifact", "error", err)
					}
				}
			}
			progress(c.Logger, "rendered "+format, start)

			if err := os.WriteFile(output, out, 0o644); err != nil {
				return pgerrors.Wrap(pgerrors.ErrCodeInternal, err, "write %s", output)
			}

			printSuccess("%s rendered", strings.ToUpper(format))
			printFile(output)
			printStats(snap.PortCount(), snap.EdgeCount(), cached)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "svg", "output format (dot, svg)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default input name with new extension)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include port metadata in node labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the artifact cache")

	return cmd
}
