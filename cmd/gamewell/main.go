// gamewell is the on-device gaming session collector: it records play
// sessions reported by the activity monitor, serves local analytics, and
// syncs closed sessions to the family dashboard.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gamewell/collector/internal/api"
	"github.com/gamewell/collector/internal/config"
	"github.com/gamewell/collector/internal/database"
	"github.com/gamewell/collector/internal/live"
	"github.com/gamewell/collector/internal/logging"
	"github.com/gamewell/collector/internal/server"
	"github.com/gamewell/collector/internal/store"
	sessionsync "github.com/gamewell/collector/internal/sync"
	"github.com/gamewell/collector/internal/tracker"
)

const clientTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "gamewell",
		Short:         "Gaming session collector",
		Long:          "gamewell records gaming sessions on this device and syncs them to the family dashboard.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "gamewell.yaml", "path to config file")

	root.AddCommand(
		newRunCmd(&configPath),
		newSyncCmd(&configPath),
		newStatusCmd(&configPath),
		newLinkCmd(&configPath),
		newPingCmd(&configPath),
	)
	return root
}

// runtime bundles everything a command needs once the database is open.
type runtime struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sql.DB
	engine *sessionsync.Engine
	feed   *live.Feed
}

func (rt *runtime) close() {
	rt.db.Close()
}

func setup(configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	feed := live.NewFeed(logger)
	engine := sessionsync.NewEngine(
		store.NewSessionStore(db),
		store.NewSettingsStore(db),
		api.NewClient(cfg.APIEndpoint, clientTimeout),
		sessionsync.Config{SyncInterval: cfg.SyncInterval, HeartbeatInterval: cfg.HeartbeatInterval},
		feed.SyncStatusChanged,
		logger,
	)
	return &runtime{cfg: cfg, logger: logger, db: db, engine: engine, feed: feed}, nil
}

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the collector daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer rt.close()

			logger := rt.logger
			sessions := store.NewSessionStore(rt.db)
			trk := tracker.New(sessions, rt.cfg.LateNightHour, rt.feed, logger)
			srv := server.New(sessions, rt.engine, trk, rt.feed, logger)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := rt.engine.Start(ctx); err != nil {
				return fmt.Errorf("start sync engine: %w", err)
			}

			httpSrv := &http.Server{
				Addr:         rt.cfg.ListenAddr,
				Handler:      srv.Router(),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("collector listening", "addr", rt.cfg.ListenAddr)
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
			case err := <-errCh:
				return fmt.Errorf("http server: %w", err)
			}

			rt.engine.Stop()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			logger.Info("collector stopped")
			return nil
		},
	}
}

func newSyncCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push pending sessions to the dashboard once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := rt.engine.Initialize(); err != nil {
				return err
			}
			result := rt.engine.Sync(cmd.Context())
			if !result.Success {
				return errors.New(result.Message)
			}
			fmt.Printf("Synced %d session(s)\n", result.Synced)
			return nil
		},
	}
}

func newStatusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show device identity and sync state",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer rt.close()

			status, err := rt.engine.Status()
			if err != nil {
				return err
			}
			fmt.Printf("Device ID: %s\n", status.DeviceID)
			if status.ChildID != "" {
				fmt.Printf("Linked to: %s\n", status.ChildID)
			} else {
				fmt.Println("Linked to: (not linked)")
			}
			pending, err := store.NewSessionStore(rt.db).CountUnsynced()
			if err != nil {
				return err
			}
			fmt.Printf("Pending sessions: %d\n", pending)
			return nil
		},
	}
}

func newLinkCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "link <child-id>",
		Short: "Link this device to a child profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := rt.engine.Initialize(); err != nil {
				return err
			}
			if err := rt.engine.Configure(args[0]); err != nil {
				return err
			}
			fmt.Printf("Linked to %s\n", args[0])
			return nil
		},
	}
}

func newPingCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test connectivity to the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := rt.engine.Initialize(); err != nil {
				return err
			}
			if rt.engine.ChildID() == "" {
				return errors.New("no child linked; run 'gamewell link <child-id>' first")
			}
			if !rt.engine.TestConnection(cmd.Context()) {
				return errors.New("dashboard unreachable")
			}
			fmt.Println("Connection OK")
			return nil
		},
	}
}
