// Package main is the entry point for taskbar-control, a tray utility that
// toggles the Windows taskbar auto-hide setting from a menu or a global hotkey.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vakulenko-g-o/taskbar-control/internal/app"
	"github.com/vakulenko-g-o/taskbar-control/internal/autostart"
	"github.com/vakulenko-g-o/taskbar-control/internal/config"
	"github.com/vakulenko-g-o/taskbar-control/internal/hotkey"
	"github.com/vakulenko-g-o/taskbar-control/internal/instance"
	"github.com/vakulenko-g-o/taskbar-control/internal/platform"
	"github.com/vakulenko-g-o/taskbar-control/internal/tray"
	"github.com/vakulenko-g-o/taskbar-control/internal/tray/view"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath   string
	hotkeyFlag   string
	logLevelFlag string
	localeFlag   string
)

// The tray event loop must own the main OS thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "taskbar-control",
	Short: "Toggle taskbar auto-hide from the tray or a global hotkey",
	Long: `taskbar-control sits in the notification area and flips the taskbar
auto-hide setting. Use the tray menu or the global hotkey (ctrl+alt+t by default).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTray,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("taskbar-control %s\n", version)
	},
}

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Manage launching at logon",
}

var autostartEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Start taskbar-control when the current user logs on",
	RunE: func(cmd *cobra.Command, args []string) error {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("resolving executable: %w", err)
		}
		m := autostart.New()
		if err := m.Install(exe); err != nil {
			return err
		}
		fmt.Printf("Autostart entry %q installed for %s\n", m.EntryName(), exe)
		return nil
	},
}

var autostartDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Remove the logon entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := autostart.New()
		if err := m.Uninstall(); err != nil {
			return err
		}
		fmt.Printf("Autostart entry %q removed\n", m.EntryName())
		return nil
	},
}

var autostartStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the logon entry is installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := autostart.New()
		installed, err := m.IsInstalled()
		if err != nil {
			return err
		}
		if installed {
			fmt.Println("Autostart: enabled")
		} else {
			fmt.Println("Autostart: disabled")
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := defaultConfigPath()
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
		if err := config.WriteConfig(config.DefaultConfig(), path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to configuration file (default: auto-discover)")
	rootCmd.Flags().StringVar(&hotkeyFlag, "hotkey", "", "Global hotkey, e.g. ctrl+alt+t")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&localeFlag, "locale", "", "Menu language: auto or a language tag such as en, ru, ru-RU")

	autostartCmd.AddCommand(autostartEnableCmd)
	autostartCmd.AddCommand(autostartDisableCmd)
	autostartCmd.AddCommand(autostartStatusCmd)
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(autostartCmd)
	rootCmd.AddCommand(configCmd)
}

func runTray(cmd *cobra.Command, args []string) error {
	cli := config.CLIOverrides{Hotkey: hotkeyFlag, LogLevel: logLevelFlag, Locale: localeFlag}
	var (
		cfg *config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.LoadLayered(cli, configPath)
	} else {
		cfg, err = config.LoadLayered(cli)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return err
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return err
	}
	combo, err := hotkey.ParseCombo(cfg.Hotkey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid hotkey: %v\n", err)
		return err
	}

	logger := initLogger(cfg)
	defer logger.Sync()

	logger.Info("Starting Taskbar Control",
		zap.String("version", version),
		zap.String("hotkey", combo.String()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if desc, err := instance.Describe(ctx); err == nil {
		logger.Info("Host", zap.String("os", desc))
	}

	if name, err := instance.ExecutableName(); err == nil {
		pids, err := instance.Others(ctx, name)
		if err != nil {
			logger.Warn("Could not check for another running instance", zap.Error(err))
		} else if len(pids) > 0 {
			logger.Error("Another instance is already running", zap.Int32s("pids", pids))
			return errors.New("another instance is already running")
		}
	}

	if elevated, err := platform.IsElevated(); err == nil && !elevated {
		logger.Warn("Not running as administrator; the taskbar setting may not persist for all users")
	}

	shell := platform.NewAdapter(platform.NewTransport(), logger.Named("shell"))
	watcher := hotkey.NewWatcher(hotkey.NewBinder(), hotkey.Config{
		Heartbeat:  cfg.Watchdog.Heartbeat.Duration,
		StaleAfter: cfg.Watchdog.StaleAfter.Duration,
	}, logger.Named("hotkey"))
	presenter := tray.New(view.ResolveLocale(cfg.UI.Locale), combo.String(), logger.Named("tray"))

	ctrl := app.New(app.Options{
		Hotkey:           combo.String(),
		LivenessInterval: cfg.Watchdog.Interval.Duration,
		JoinTimeout:      cfg.Shutdown.JoinTimeout.Duration,
		ForceExitAfter:   cfg.Shutdown.ForceExitAfter.Duration,
		Exit: func(code int) {
			_ = logger.Sync()
			os.Exit(code)
		},
	}, shell, presenter, watcher, logger)

	// Handle OS signals through the same shutdown path as the Quit item.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
			ctrl.Shutdown("signal " + sig.String())
		case <-ctrl.Done():
		}
	}()

	if err := ctrl.Run(ctx); err != nil {
		logger.Error("Taskbar Control failed to start", zap.Error(err))
		return err
	}
	logger.Info("Taskbar Control stopped")
	return nil
}

func defaultConfigPath() string {
	if p := config.Locate(); p != "" {
		return p
	}
	return filepath.Join(config.DataDir(), "config.yaml")
}
