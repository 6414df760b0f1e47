package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"heatmap/internal/api"
	"heatmap/internal/chart"
	"heatmap/internal/config"
	"heatmap/internal/engine"
	"heatmap/internal/fetcher"
	"heatmap/internal/logging"
	"heatmap/internal/models"
	"heatmap/internal/view"
	"heatmap/internal/web"
)

func main() {
	var configPath, dataPath, addr string

	rootCmd := &cobra.Command{
		Use:   "heatmap-server",
		Short: "Serve the country dataset and its bar chart page",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, dataPath, addr)
		},
		SilenceUsage: true,
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML config file (watched for changes)")
	rootCmd.Flags().StringVar(&dataPath, "data", "", "dataset file (.json, .csv, .xlsx); overrides data.path")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address; overrides server.host/port")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, dataPath, addr string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	mgr, err := config.NewManager(configPath)
	if err != nil {
		return err
	}
	cfg := *mgr.Get()
	logging.Setup(cfg.Log.Level)
	mgr.SetOnChange(func(c *config.Config) {
		logging.SetLevel(c.Log.Level)
	})

	if dataPath != "" {
		cfg.Data.Path = dataPath
	}
	if addr != "" {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("invalid --addr %q: %w", addr, err)
		}
		cfg.Server.Host = host
		if cfg.Server.Port, err = strconv.Atoi(port); err != nil {
			return fmt.Errorf("invalid --addr port %q: %w", port, err)
		}
	}
	addr = cfg.Addr()
	dataPath = cfg.Data.Path

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Data endpoint is live immediately and answers 503 until the load finishes
	store := engine.NewStore()
	e := api.NewEcho()
	api.NewHandler(store).RegisterRoutes(e)

	// 2. Chart page, fed by the data endpoint (this server unless backend.url is set)
	controller := view.NewController(
		fetcher.NewClient(cfg.BackendURL(), cfg.BackendTimeout()),
		chart.NewRenderer(cfg.ChartOptions()),
		view.NewPanels(cfg.ImageLinks()),
	)
	web.NewHandler(controller, cfg.Images.Dir).RegisterRoutes(e)

	// 3. Load in the background
	go func() {
		t0 := time.Now()
		records, err := engine.LoadFile(dataPath)
		if err != nil {
			log.Error().Err(err).Str("file", dataPath).Msg("dataset load failed")
			return
		}
		store.Replace(records)
		log.Info().Dur("took", time.Since(t0)).Int("rows", len(records)).Msg("dataset ready")

		refresh := func(records []models.Record) {
			if err := seedView(ctx, controller, &cfg, records); err != nil {
				log.Warn().Err(err).Msg("initial chart not drawn")
			}
		}
		refresh(records)

		if cfg.Data.Watch {
			if err := engine.Watch(ctx, dataPath, store, refresh); err != nil {
				log.Error().Err(err).Str("file", dataPath).Msg("dataset watcher stopped")
			}
		}
	}()

	// 4. Serve until signalled
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server listening (data loading in background)")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// seedView draws the full dataset. Records come straight from the file when
// the chart reads from this server, otherwise from the configured backend.
func seedView(ctx context.Context, controller *view.Controller, cfg *config.Config, records []models.Record) error {
	if cfg.Backend.URL == "" {
		return controller.Seed(records)
	}
	return controller.LoadAll(ctx)
}
