package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"heatmap/internal/chart"
	"heatmap/internal/config"
	"heatmap/internal/fetcher"
	"heatmap/internal/logging"
	"heatmap/internal/view"
)

type options struct {
	configPath string
	backend    string
	outDir     string
	format     string
	parallel   int
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "heatmap-render [terms...]",
		Short: "Render the chart for each search term to a file",
		Long: `Fetch the dataset from a running data endpoint and write one chart per term.

With no terms the full dataset is drawn. Example:
  heatmap-render --backend http://127.0.0.1:8080 --format png all chad mali`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{fetcher.AllTerm}
			}
			return run(cmd.Context(), opts, args)
		},
		SilenceUsage: true,
	}
	f := rootCmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "YAML config file")
	f.StringVar(&opts.backend, "backend", "", "data endpoint host; overrides backend.url")
	f.StringVar(&opts.outDir, "out-dir", ".", "directory for the rendered files")
	f.StringVar(&opts.format, "format", "svg", "output format: svg or png")
	f.IntVar(&opts.parallel, "parallel", 4, "terms rendered at once")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, terms []string) error {
	if opts.format != "svg" && opts.format != "png" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	mgr, err := config.NewManager(opts.configPath)
	if err != nil {
		return err
	}
	cfg := *mgr.Get()
	logging.Setup(cfg.Log.Level)
	if opts.backend != "" {
		cfg.Backend.URL = opts.backend
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return err
	}

	client := fetcher.NewClient(cfg.BackendURL(), cfg.BackendTimeout())
	renderer := chart.NewRenderer(cfg.ChartOptions())

	dataset, err := client.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch dataset: %w", err)
	}
	log.Info().Int("records", len(dataset)).Int("terms", len(terms)).Msg("dataset fetched")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.parallel, 1))
	for _, term := range terms {
		term := term
		g.Go(func() error {
			controller := view.NewController(client, renderer, view.NewPanels(cfg.ImageLinks()))
			if err := controller.Seed(dataset); err != nil {
				return fmt.Errorf("draw dataset: %w", err)
			}
			if err := controller.ApplyFilter(ctx, term); err != nil {
				return fmt.Errorf("term %q: %w", term, err)
			}
			path := filepath.Join(opts.outDir, fileName(term, opts.format))
			if err := writeChart(controller.Snapshot().View.Chart, opts.format, path); err != nil {
				return fmt.Errorf("term %q: %w", term, err)
			}
			log.Info().Str("term", term).Str("file", path).Msg("chart written")
			return nil
		})
	}
	return g.Wait()
}

func writeChart(c *chart.Chart, format, path string) error {
	if c == nil {
		return errors.New("nothing drawn")
	}
	var buf bytes.Buffer
	var err error
	if format == "png" {
		err = c.WritePNG(&buf)
	} else {
		err = c.WriteSVG(&buf)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// fileName turns a term into a safe file name.
func fileName(term, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == 0:
			return '_'
		case r == ' ':
			return '-'
		}
		return r
	}, fetcher.NormalizeTerm(term))
	return name + "." + ext
}
