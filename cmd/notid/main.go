// Package main is the entry point for the notid notification daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmylchreest/notid/internal/audio"
	"github.com/jmylchreest/notid/internal/config"
	"github.com/jmylchreest/notid/internal/daemon"
	"github.com/jmylchreest/notid/internal/dbus"
	"github.com/jmylchreest/notid/internal/history"
	"github.com/jmylchreest/notid/internal/keys"
	"github.com/jmylchreest/notid/internal/popup"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/notid/notid.toml)")
	monitorMode := flag.Bool("monitor", false, "Run in monitor mode (passive, no popups/sounds, records traffic to history alongside another daemon)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("notid version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	run := runDaemon
	if *monitorMode {
		run = runMonitor
	}
	if err := run(logger, *configPath); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("daemon failed", "error", err)
		os.Exit(1)
	}
	logger.Info("notid stopped")
}

func runDaemon(logger *slog.Logger, configPath string) error {
	logger.Info("starting notid", "version", version)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	loop := daemon.NewLoop(logger)

	// History store
	var historyStore *history.Store
	if cfg.History.Enabled {
		historyStore, err = history.Open(cfg.History.Path, logger)
		if err != nil {
			return fmt.Errorf("opening history store: %w", err)
		}
		defer historyStore.Close()
		if keep := time.Duration(cfg.History.Keep); keep > 0 {
			if pruned, err := historyStore.Prune(keep); err != nil {
				logger.Warn("history prune failed", "error", err)
			} else if pruned > 0 {
				logger.Info("pruned history", "records", pruned)
			}
		}
	}

	// Audio
	audioManager := audio.NewManager(cfg, logger)
	if err := audioManager.Start(); err != nil {
		logger.Warn("audio unavailable, sounds disabled", "error", err)
	}
	defer audioManager.Stop()

	// Notification manager; timers post back onto the loop
	manager, err := popup.NewManager(cfg, popup.RealClock(), logger)
	if err != nil {
		return fmt.Errorf("creating notification manager: %w", err)
	}
	manager.SetPoster(loop.Post)

	// Keymaps: defaults plus config overrides
	keymap := keys.NewKeymap()
	if err := keymap.BindAll(cfg.Keymaps); err != nil {
		return fmt.Errorf("binding keymaps: %w", err)
	}
	dispatcher := daemon.NewDispatcher(keymap, manager, audioManager, logger)

	// D-Bus notification server
	server := dbus.NewNotificationServer(logger)
	server.SetServerInfo(dbus.ServerInfo{
		Name:        "notid",
		Vendor:      "notid",
		Version:     version,
		SpecVersion: "1.2",
	})
	server.SetNotifyHandler(func(n *dbus.DBusNotification, id uint32) {
		loop.Post(func() { manager.Add(n, id) })
	})
	server.SetCloseHandler(func(id uint32) {
		loop.Post(func() { manager.Close(id) })
	})

	internalNotifier := daemon.NewInternalNotifier(logger)
	internalNotifier.SetNotifyHandler(server.NotifyInternal)

	manager.SetCloseCallback(func(id uint32, reason dbus.CloseReason) {
		if err := server.EmitNotificationClosed(id, reason); err != nil {
			logger.Warn("failed to emit close signal", "id", id, "error", err)
		}
	})
	manager.SetActionCallback(func(id uint32, actionKey string) {
		if err := server.EmitActionInvoked(id, actionKey); err != nil {
			logger.Warn("failed to emit action signal", "id", id, "error", err)
		}
	})
	manager.SetOpenCallback(func(target string) {
		if err := exec.Command("xdg-open", target).Start(); err != nil {
			logger.Warn("failed to open link", "target", target, "error", err)
		}
	})
	manager.SetSoundCallback(func(n *popup.Notification) {
		go func() {
			if err := audioManager.Play(n.Urgency, n.SoundFile, n.SoundName, n.SuppressSound); err != nil {
				logger.Debug("notification sound failed", "id", n.ID, "error", err)
				internalNotifier.NotifyAudioError(err)
			}
		}()
	})
	if historyStore != nil {
		manager.SetArchiveCallback(func(n *popup.Notification, reason dbus.CloseReason) {
			if n.Transient {
				return
			}
			rec := history.Record{
				NotificationID: n.ID,
				AppName:        n.AppName,
				AppIcon:        n.AppIcon,
				Summary:        n.Summary,
				Body:           n.Body,
				Urgency:        n.Urgency,
				Reason:         uint32(reason),
			}
			if _, err := historyStore.Append(rec); err != nil {
				logger.Warn("failed to archive notification", "id", n.ID, "error", err)
			}
		})
	}

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting D-Bus server: %w", err)
	}
	defer server.Stop()

	// Control interface for notictl, on the same connection
	controller := daemon.NewController(loop, manager, audioManager, dispatcher, logger)
	controller.SetNotifier(internalNotifier)
	control := dbus.NewControlServer(controller, logger)
	if err := control.Start(server.Connection()); err != nil {
		return fmt.Errorf("starting control interface: %w", err)
	}
	defer control.Stop()

	// Config hot reload
	watchPath := configPath
	if watchPath == "" {
		watchPath, err = config.Path()
		if err != nil {
			logger.Warn("config path unavailable, hot reload disabled", "error", err)
		}
	}
	if watchPath != "" {
		watcher := daemon.NewConfigWatcher(watchPath, func() {
			newCfg, err := config.LoadFile(watchPath)
			if err != nil {
				logger.Warn("config reload failed", "error", err)
				internalNotifier.NotifyConfigError(err)
				return
			}
			loop.Post(func() {
				if err := manager.UpdateConfig(newCfg); err != nil {
					logger.Warn("config reload: bad hint alphabet", "error", err)
				}
				audioManager.UpdateConfig(newCfg)
				if err := keymap.BindAll(newCfg.Keymaps); err != nil {
					logger.Warn("config reload: bad keymap", "error", err)
				}
				logger.Info("configuration reloaded", "path", watchPath)
				internalNotifier.NotifyConfigReloaded()
			})
		}, logger)
		if err := watcher.Start(); err != nil {
			logger.Warn("config watcher unavailable", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	logger.Info("notid ready", "dbus_interface", dbus.DBusInterface, "control", dbus.ControlInterface)
	return loop.Run(ctx)
}

// runMonitor passively captures Notify traffic to history while another
// notification daemon owns the display.
func runMonitor(logger *slog.Logger, configPath string) error {
	logger.Info("starting notid in monitor mode", "version", version)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	historyStore, err := history.Open(cfg.History.Path, logger)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer historyStore.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	monitor := dbus.NewMonitor(logger)
	monitor.SetNotifyHandler(func(n *dbus.DBusNotification, id uint32) {
		if n.Transient() {
			return
		}
		rec := history.Record{
			NotificationID: id,
			AppName:        n.AppName,
			AppIcon:        n.AppIcon,
			Summary:        n.Summary,
			Body:           n.Body,
			Urgency:        n.Urgency(),
			Reason:         uint32(dbus.CloseReasonUndefined),
		}
		if _, err := historyStore.Append(rec); err != nil {
			logger.Warn("failed to record notification", "app", n.AppName, "error", err)
		}
	})
	if err := monitor.Start(); err != nil {
		return fmt.Errorf("starting monitor: %w", err)
	}
	defer monitor.Stop()

	logger.Info("notid monitor ready, passively capturing notifications")
	<-ctx.Done()
	return ctx.Err()
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
