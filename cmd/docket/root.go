package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jacentio/docket/connect"
	"github.com/jacentio/docket/dynamo"
	"github.com/jacentio/docket/instrument"
	"github.com/jacentio/docket/memstore"
	"github.com/jacentio/docket/mongo"
	"github.com/jacentio/docket/store"
)

// envPrefix prefixes every environment variable the command reads.
const envPrefix = "DOCKET_"

// app carries the settings and connection shared by all subcommands.
type app struct {
	backend  string
	host     string
	port     int
	database string
	user     string
	password string
	region   string
	local    bool
	segments int
	envFile  string
	verbose  bool
	metrics  bool

	flags    *pflag.FlagSet
	logger   *slog.Logger
	registry *prometheus.Registry
	drivers  map[string]func(a *app) connect.Driver
	mgr      *connect.Manager
}

func newApp() *app {
	return &app{
		drivers: map[string]func(a *app) connect.Driver{
			"memory": func(*app) connect.Driver { return memstore.NewServer() },
			"mongo": func(a *app) connect.Driver {
				return mongo.NewDriver(mongo.DefaultConfig(), mongo.WithLogger(a.logger))
			},
			"dynamo": func(a *app) connect.Driver {
				return dynamo.NewDriver(dynamo.Config{
					Region:       a.region,
					Local:        a.local,
					ScanSegments: a.segments,
				}, dynamo.WithLogger(a.logger))
			},
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "docket",
		Short: "Inspect and maintain document store collections",
		Long: `Docket works on the raw documents of a collection, whatever entity type
they hold. Connection settings come from flags, then DOCKET_* environment
variables, then a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !a.metrics {
				return nil
			}
			return a.writeMetrics(cmd.ErrOrStderr())
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&a.backend, "backend", "b", "mongo", "Store backend: memory, mongo or dynamo")
	f.StringVar(&a.host, "host", "", "Store host (env DOCKET_HOST)")
	f.IntVar(&a.port, "port", 0, "Store port (env DOCKET_PORT)")
	f.StringVarP(&a.database, "database", "d", "", "Database name (env DOCKET_DATABASE)")
	f.StringVarP(&a.user, "user", "u", "", "User name (env DOCKET_USER)")
	f.StringVar(&a.password, "password", "", "Password (env DOCKET_PASSWORD)")
	f.StringVar(&a.region, "region", "", "AWS region for the dynamo backend (env DOCKET_REGION)")
	f.BoolVar(&a.local, "local", true, "Use DynamoDB Local at host:port (env DOCKET_LOCAL)")
	f.IntVar(&a.segments, "segments", 1, "Parallel scan segments for the dynamo backend")
	f.StringVar(&a.envFile, "env-file", ".env", "Environment file to load if present")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	f.BoolVar(&a.metrics, "metrics", false, "Print collection metrics to stderr on exit")
	a.flags = f

	root.AddCommand(
		newAwaitCmd(a),
		newIDsCmd(a),
		newExistsCmd(a),
		newGetCmd(a),
		newDeleteCmd(a),
		newPurgeCmd(a),
	)
	return root
}

// setup loads the environment file, configures logging and prepares an
// unconnected manager.
func (a *app) setup(stderr io.Writer) error {
	if err := godotenv.Load(a.envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || a.flags.Changed("env-file") {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	a.applyEnv()
	newDriver, ok := a.drivers[a.backend]
	if !ok {
		return fmt.Errorf("unknown backend %q", a.backend)
	}

	a.registry = prometheus.NewRegistry()
	metrics, err := instrument.NewMetrics(a.registry)
	if err != nil {
		return err
	}

	a.mgr = connect.NewManager(newDriver(a), a.config(),
		connect.WithLogger(a.logger),
		connect.WithCollectionWrapper(metrics.Wrap),
	)
	return nil
}

// applyEnv fills settings whose flags were not given from the environment.
func (a *app) applyEnv() {
	if v := os.Getenv(envPrefix + "BACKEND"); v != "" && !a.flags.Changed("backend") {
		a.backend = v
	}
	if v := os.Getenv(envPrefix + "REGION"); v != "" && !a.flags.Changed("region") {
		a.region = v
	}
	if v := os.Getenv(envPrefix + "LOCAL"); v != "" && !a.flags.Changed("local") {
		if b, err := strconv.ParseBool(v); err == nil {
			a.local = b
		}
	}
}

// config merges flags over DOCKET_* variables over defaults.
func (a *app) config() connect.Config {
	cfg := connect.ConfigFromEnv(envPrefix)
	if a.backend == "dynamo" && os.Getenv(envPrefix+"PORT") == "" {
		cfg.Port = dynamo.DefaultLocalPort
	}
	if a.flags.Changed("host") {
		cfg.Host = a.host
	}
	if a.flags.Changed("port") {
		cfg.Port = a.port
	}
	if a.flags.Changed("database") {
		cfg.Database = a.database
	}
	if a.flags.Changed("user") {
		cfg.User = a.user
	}
	if a.flags.Changed("password") {
		cfg.Password = a.password
	}
	return cfg
}

func (a *app) collection(ctx context.Context, name string) (store.Collection, error) {
	return a.mgr.Collection(ctx, name)
}

func (a *app) writeMetrics(w io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) close(ctx context.Context) error {
	if a.mgr == nil {
		return nil
	}
	return a.mgr.Close(ctx)
}
