package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ammerola/countsync/internal/offline"
	"github.com/ammerola/countsync/internal/offline/localdb"
	"github.com/ammerola/countsync/internal/pkg/logger"
)

// app carries what setup resolved to the subcommands
type app struct {
	v   *viper.Viper
	out io.Writer

	configPath       string
	jsonOutput       bool
	verbose          bool
	syncAfterEnqueue bool

	cfg    offline.Config
	logger *slog.Logger
	store  offline.Store
	engine *offline.Engine
}

// flagKeys maps persistent flags to their config keys
var flagKeys = map[string]string{
	"api-url":         offline.KeyAPIURL,
	"business-id":     offline.KeyBusinessID,
	"user-id":         offline.KeyUserID,
	"device-id":       offline.KeyDeviceID,
	"db":              offline.KeyDBPath,
	"max-retries":     offline.KeyMaxRetries,
	"operation-delay": offline.KeyOperationDelay,
	"log-level":       offline.KeyLogLevel,
}

func newRootCmd() *cobra.Command {
	a := &app{v: offline.NewViper(), out: os.Stdout}

	cmd := &cobra.Command{
		Use:           "countsync",
		Short:         "Offline inventory count queue",
		Long:          "Queue inventory counts and product edits on a device and sync them to the count API when online.",
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file path (default ./countsync.yaml)")
	flags.BoolVar(&a.jsonOutput, "json", false, "output in JSON format")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.String("api-url", "", "count API base URL")
	flags.String("business-id", "", "business the device counts for")
	flags.String("user-id", "", "user recorded as the counter")
	flags.String("device-id", "", "device identifier sent with counts")
	flags.String("db", "", "queue database path")
	flags.Int("max-retries", 0, "failed passes an operation survives")
	flags.Duration("operation-delay", 0, "pause between operations during a sync pass")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	for name, key := range flagKeys {
		if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}

	cmd.AddCommand(newEnqueueCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newStatsCmd(a))
	cmd.AddCommand(newClearCmd(a))
	cmd.AddCommand(newDeadLettersCmd(a))
	cmd.AddCommand(newSyncCmd(a))
	cmd.AddCommand(newRunCmd(a))

	withApp(cmd, a)

	return cmd
}

// withApp wraps every runnable command so the queue database is opened after
// flag validation and closed even when the command fails. Cobra's pre-run
// hooks run before required flags are checked and post-run hooks are skipped
// on error.
func withApp(cmd *cobra.Command, a *app) {
	for _, sub := range cmd.Commands() {
		withApp(sub, a)
	}
	if cmd.RunE == nil {
		return
	}
	run := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := a.setup(cmd); err != nil {
			return err
		}
		err := run(cmd, args)
		if closeErr := a.close(); err == nil {
			err = closeErr
		}
		return err
	}
}

// setup loads config, opens the queue database and builds the engine
func (a *app) setup(cmd *cobra.Command) error {
	if err := offline.ReadConfigFile(a.v, a.configPath); err != nil {
		return err
	}

	cfg, err := offline.LoadConfig(a.v)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	a.logger = logger.NewLogger(&logger.LogConfig{
		Level:       level,
		Format:      cfg.LogFormat,
		Output:      cmd.ErrOrStderr(),
		ServiceName: "countsync",
		Version:     Version,
	})

	store, err := localdb.Open(cfg.DBPath, a.logger)
	if err != nil {
		return err
	}
	a.store = store

	client, err := offline.NewClient(offline.ClientConfig{
		BaseURL:    cfg.APIURL,
		BusinessID: cfg.BusinessID,
		UserID:     cfg.UserID,
		DeviceID:   cfg.DeviceID,
		Timeout:    cfg.RequestTimeout,
	}, nil, a.logger)
	if err != nil {
		_ = store.Close()
		return err
	}

	a.engine = offline.NewEngine(store, client, client, cfg, a.logger)
	a.out = cmd.OutOrStdout()
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}
