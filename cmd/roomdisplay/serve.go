package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"roomdisplay/internal/config"
	"roomdisplay/internal/graph"
	applog "roomdisplay/internal/log"
	"roomdisplay/internal/refresh"
	"roomdisplay/internal/web"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the display server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "HTTP listen address (overrides config if set)")
}

func runServe(_ *cobra.Command, _ []string) error {
	applog.Info("roomdisplay starting", "version", version)

	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		applog.Error("failed to load config", err, "config_path", flagConfigPath)
		return err
	}
	if flagListen != "" {
		cfg.Listen = flagListen
	}

	loc := cfg.Location()
	applog.Info("effective config",
		"listen", cfg.Listen,
		"room", cfg.RoomName,
		"timezone", loc.String(),
		"refresh_seconds", cfg.RefreshSeconds,
		"has_credentials", cfg.HasCredentials(),
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		applog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	client := graph.NewClient(graph.Credentials{
		ClientID:          cfg.Graph.ClientID,
		ClientSecret:      cfg.Graph.ClientSecret,
		TenantID:          cfg.Graph.TenantID,
		BookingBusinessID: cfg.Graph.BookingBusinessID,
	})

	state := refresh.NewState()
	refresher := refresh.New(client, state, loc, time.Duration(cfg.RefreshSeconds)*time.Second)

	if cfg.HasCredentials() {
		// Fetch once before serving so the page has data immediately.
		if err := refresher.Refresh(ctx); err != nil {
			applog.Error("initial refresh failed", err)
		}
		go refresher.Run(ctx)

		// The background loop is fixed-delay, so on its own it crosses local
		// midnight at an arbitrary point inside the interval. Force a refresh
		// at midnight so the day window flips on time.
		rollover := cron.New(cron.WithLocation(loc))
		if _, err := rollover.AddFunc("0 0 * * *", func() {
			if err := refresher.Refresh(ctx); err != nil {
				applog.Error("midnight rollover refresh failed", err)
			}
		}); err != nil {
			return err
		}
		rollover.Start()
		defer rollover.Stop()
	} else {
		applog.Warn("graph credentials incomplete; display stays empty until configured",
			"config_path", flagConfigPath)
	}

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: web.NewServer(cfg, state, refresher).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		applog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			applog.Error("HTTP server shutdown failed", err)
		}
		applog.Info("roomdisplay exiting")
		return nil
	}
}
