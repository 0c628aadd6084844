package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/simphone/ussdd/internal/analytics"
	"github.com/simphone/ussdd/internal/config"
	"github.com/simphone/ussdd/internal/engine"
	"github.com/simphone/ussdd/internal/events"
	"github.com/simphone/ussdd/internal/gateway"
	"github.com/simphone/ussdd/internal/session"
	"github.com/simphone/ussdd/internal/store"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the USSD gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating data directories: %w", err)
			}

			bus := events.NewBus(log)

			// Menu tree store (SQLite or in-memory)
			var trees treeBackend
			if cfg.Tree.Store == "memory" {
				trees = store.NewMemoryTreeStore()
				log.Info().Msg("using in-memory tree store")
			} else {
				dbPath := filepath.Join(paths.Data, "ussdd.db")
				db, err := store.Open(dbPath, log)
				if err != nil {
					return fmt.Errorf("opening database: %w", err)
				}
				defer db.Close()
				trees, err = store.NewTreeStore(db, log)
				if err != nil {
					return fmt.Errorf("loading tree config: %w", err)
				}
				log.Info().Str("path", dbPath).Msg("using SQLite tree store")
			}

			engineOpts := []engine.Option{
				engine.WithBus(bus),
				engine.WithTimeout(time.Duration(cfg.Session.TimeoutMinutes) * time.Minute),
			}
			if cfg.CDP.Endpoint != "" {
				engineOpts = append(engineOpts,
					engine.WithDispatcher(analytics.NewHTTPDispatcher(cfg.CDP.Endpoint, cfg.CDP.WriteKey, log)))
				log.Info().Str("endpoint", cfg.CDP.Endpoint).Msg("CDP dispatching enabled")
			} else {
				log.Info().Msg("no CDP endpoint configured — events will not be dispatched")
			}

			eng := engine.New(trees, session.NewMemoryStore(), log, engineOpts...)

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sweeper := session.NewSweeper(eng, time.Duration(cfg.Session.SweepSeconds)*time.Second, log)
			go sweeper.Run(ctx)

			srv := gateway.New(cfg, eng, log,
				gateway.WithTreeConfig(trees),
				gateway.WithBus(bus),
			)

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")

	return cmd
}

// treeBackend is what serve needs from a tree store: the engine's read side
// plus the gateway's config surface.
type treeBackend interface {
	engine.TreeProvider
	gateway.TreeConfig
}
