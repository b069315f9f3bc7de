package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luxoft/connectivity-managerd/internal/config"
	"github.com/luxoft/connectivity-managerd/internal/connman"
	"github.com/luxoft/connectivity-managerd/internal/hlog"
	"github.com/luxoft/connectivity-managerd/internal/ipc"
	"github.com/luxoft/connectivity-managerd/internal/state"
)

// Version is set at build time via -ldflags.
var Version = "unknown"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var busFlag string
var logLevelFlag string

var rootCmd = &cobra.Command{
	Use:     "connectivity-managerd",
	Short:   "Connectivity manager daemon",
	Long:    "Mediates between clients and ConnMan over D-Bus, exposing com.luxoft.ConnectivityManager.",
	Args:    cobra.NoArgs,
	Version: Version,
	RunE:    run,
}

func init() {
	rootCmd.Flags().StringVar(&busFlag, "bus", "", "D-Bus bus to bind (system|session), overrides config")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "", "log level (debug|info|warn|error), overrides config")
}

func run(cmd *cobra.Command, args []string) error {
	v := viper.New()
	if busFlag != "" {
		v.Set("bus", busFlag)
	}
	if logLevelFlag != "" {
		v.Set("log_level", logLevelFlag)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	log := hlog.Init(cfg.LogLevel)
	log.Info("starting", "version", Version, "bus", cfg.Bus)

	var conn *dbus.Conn
	if cfg.Bus == config.BusSession {
		conn, err = dbus.ConnectSessionBus()
	} else {
		conn, err = dbus.ConnectSystemBus()
	}
	if err != nil {
		return fmt.Errorf("connect to bus: %w", err)
	}
	defer conn.Close()

	reply, err := conn.RequestName("com.luxoft.ConnectivityManager", dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name com.luxoft.ConnectivityManager already owned")
	}

	store := state.New()
	store.Subscribe(func(e state.Event) {
		if _, ok := e.(state.CriticalErrorEvent); ok {
			log.Info("critical error reported by provider adapter, exiting")
			os.Exit(1)
		}
	})

	backend := connman.New(conn, store, log)
	if err := backend.Start(); err != nil {
		return fmt.Errorf("start provider adapter: %w", err)
	}

	if _, err := ipc.Export(conn, backend, log); err != nil {
		return fmt.Errorf("export manager object: %w", err)
	}

	log.Info("running")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for s := range sig {
		switch s {
		case syscall.SIGHUP:
			log.Info("SIGHUP received, nothing to reload")
		default:
			log.Info("shutting down", "signal", s.String())
			conn.ReleaseName("com.luxoft.ConnectivityManager")
			return nil
		}
	}
	return nil
}
