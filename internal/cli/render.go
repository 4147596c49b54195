package cli

import (
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"github.com/ha1tch/graphcanvas/pkg/renderer"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output      string // output path, "-" for stdout
	width       int
	height      int
	supersample int
	viewport    bool // keep the document's viewport instead of fitting
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <document>",
		Short: "Render a graph document to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := c.cfg.SnapshotOptions()
			flags := cmd.Flags()
			if flags.Changed("width") {
				snap.Width = opts.width
			}
			if flags.Changed("height") {
				snap.Height = opts.height
			}
			if flags.Changed("supersample") {
				snap.Supersample = opts.supersample
			}
			snap.Fit = !opts.viewport
			return c.runRender(cmd.Context(), args[0], opts.output, snap, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: document name with .png, - for stdout)")
	cmd.Flags().IntVar(&opts.width, "width", 0, "image width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", 0, "image height in pixels")
	cmd.Flags().IntVar(&opts.supersample, "supersample", 0, "render at this multiple and downsample")
	cmd.Flags().BoolVar(&opts.viewport, "viewport", false, "use the document's viewport instead of fitting the content")
	return cmd
}

// defaultOutput replaces the document's extension with .png.
func defaultOutput(doc string) string {
	return strings.TrimSuffix(doc, filepath.Ext(doc)) + ".png"
}

func (c *CLI) runRender(ctx context.Context, path, output string, snap renderer.SnapshotOptions, stdout io.Writer) error {
	if snap.Width <= 0 || snap.Height <= 0 {
		return zerr.With(zerr.New("image size must be positive"), "size", [2]int{snap.Width, snap.Height})
	}
	if output == "" {
		output = defaultOutput(path)
	}
	start := time.Now()

	s, err := c.openSession(path, renderer.Headless{W: snap.Width, H: snap.Height})
	if err != nil {
		return err
	}
	img, err := export(ctx, s, snap)
	if err != nil {
		return err
	}

	if output == "-" {
		return renderer.EncodePNG(stdout, img)
	}
	f, err := os.Create(output)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create output"), "path", output)
	}
	defer f.Close()
	if err := renderer.EncodePNG(f, img); err != nil {
		return zerr.With(err, "path", output)
	}
	c.Logger.Infof("Wrote %s (%s)", output, time.Since(start).Round(time.Millisecond))
	return nil
}

// export runs the session's loop just long enough to take one snapshot.
func export(ctx context.Context, s *session, snap renderer.SnapshotOptions) (*image.RGBA, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var img *image.RGBA
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(s.loop.Run(gctx))
	})
	g.Go(func() error {
		defer cancel()
		var err error
		img, err = s.r.Export(gctx, snap)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.r.Destroy()
	return img, nil
}
