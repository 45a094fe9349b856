package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"paramview/internal/api"
	"paramview/internal/config"
	"paramview/internal/engine"
	"paramview/internal/export"
	"paramview/internal/viewer"
	"paramview/internal/watch"
)

var levels = map[string]log.Lvl{
	"debug": log.DEBUG,
	"info":  log.INFO,
	"warn":  log.WARN,
	"error": log.ERROR,
}

type options struct {
	configPath string
	logLevel   string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "paramview",
		Short:        "Interactive viewer for precomputed parametric datasets",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, ok := levels[strings.ToLower(opts.logLevel)]
			if !ok {
				return fmt.Errorf("unknown log level %q", opts.logLevel)
			}
			log.SetOutput(cmd.ErrOrStderr())
			log.SetLevel(lvl)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "configuration `file` (default: built-in thermal demo)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(serveCmd(opts), sliceCmd(opts))
	return root
}

func loadConfig(opts *options) (*config.Config, error) {
	if opts.configPath == "" {
		return config.Default(), nil
	}
	return config.Load(opts.configPath)
}

func serveCmd(opts *options) *cobra.Command {
	var (
		addr    string
		watchFS bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the plot API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store := engine.NewStore(cfg)
			h := api.NewHandler(viewer.New(store))
			e := api.NewServer(h)
			e.Logger.SetLevel(log.Level())

			// The API is live right away and answers 503 until every
			// plot has been loaded.
			go func() {
				log.Info("BACKGROUND: loading plot data...")
				t0 := time.Now()
				if err := store.LoadAll(ctx); err != nil {
					log.Errorf("BACKGROUND: %v", err)
				}
				h.SetReady(true)
				log.Infof("BACKGROUND: load complete in %v, API is fully ready", time.Since(t0))

				if watchFS {
					r, err := watch.New(store)
					if err != nil {
						log.Errorf("watch: %v", err)
						return
					}
					r.Run(ctx)
				}
			}()

			go shutdownOnDone(ctx, e, 5*time.Second)

			log.Infof("server ready on %s (data loading in background...)", addr)
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&watchFS, "watch", false, "reload a plot when its source file changes")
	return cmd
}

// shutdownOnDone stops e once ctx is done, giving in-flight requests up to
// timeout to finish.
func shutdownOnDone(ctx context.Context, e *echo.Echo, timeout time.Duration) error {
	<-ctx.Done()
	shutdown, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := e.Shutdown(shutdown); err != nil {
		log.Errorf("shutdown: %v", err)
		return err
	}
	return nil
}

func sliceCmd(opts *options) *cobra.Command {
	var (
		plotKey string
		sets    []string
		format  string
	)
	cmd := &cobra.Command{
		Use:   "slice",
		Short: "Write one slice of a plot's dataset to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			store := engine.NewStore(cfg)
			svc := viewer.New(store)

			if plotKey == "" {
				key, ok := svc.ActivePlot()
				if !ok {
					return errors.New("no enabled plot configured")
				}
				plotKey = key
			}
			if err := store.Load(cmd.Context(), plotKey); err != nil {
				return err
			}

			set, err := parseSets(sets)
			if err != nil {
				return err
			}
			sel, err := svc.Resolve(plotKey, set)
			if err != nil {
				return err
			}
			v, err := svc.View(plotKey, sel)
			if err != nil {
				return err
			}
			log.Infof("%s %v: %d data points", plotKey, sel, v.Slice.DataPoints)

			var n int
			switch format {
			case "csv":
				n, err = export.WriteCSV(cmd.OutOrStdout(), v.Slice)
			case "arrow":
				n, err = export.WriteArrow(cmd.OutOrStdout(), v.Slice)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			if err != nil {
				return err
			}
			if n == 0 {
				log.Warn("nothing to export: selection matches no rows")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&plotKey, "plot", "p", "", "plot key (default: the active plot)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "parameter choice `name=value`, repeatable")
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv or arrow")
	return cmd
}

func parseSets(sets []string) (map[string]float64, error) {
	out := make(map[string]float64, len(sets))
	for _, s := range sets {
		name, val, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("--set %q: expected name=value", s)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("--set %q: %w", s, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("--set %q: value must be finite", s)
		}
		out[strings.TrimSpace(name)] = v
	}
	return out, nil
}
