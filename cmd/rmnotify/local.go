package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"rmnotify/internal/app"
	"rmnotify/internal/config"
	"rmnotify/internal/session"
	logx "rmnotify/pkg/logx"
)

var errStorageDisabled = errors.New("storage is disabled; set storage.driver or pass --ephemeral")

// loadConfig reads the config file. A missing file yields defaults with the
// file driver under the user data dir so the store commands work without one.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		dir, err := defaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg = &config.Config{Storage: config.StorageConfig{Driver: "file", Path: dir}}
	} else {
		cfg, err = config.NewConfigManager(cfgPath).Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if ephemeral {
		cfg.Storage.Driver = "memory"
	}
	return cfg, nil
}

func defaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate data dir: %w", err)
	}
	return filepath.Join(base, "rmnotify", "data"), nil
}

// requireStorage fails commands whose only effect is a write.
func requireStorage(l *app.Local) error {
	if l.KV == nil {
		return errStorageDisabled
	}
	return nil
}

func cliLogger() logx.Logger {
	if jsonOutput {
		return logx.NewJSON(os.Stderr, logLevel)
	}
	return logx.NewConsole(os.Stderr, logLevel)
}

// withLocal opens the store for the duration of fn.
func withLocal(fn func(l *app.Local, cfg *config.Config) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	l, err := app.OpenLocal(cfg, nil, cliLogger())
	if err != nil {
		return err
	}
	defer l.Close()
	return fn(l, cfg)
}

func openSessions(cfg *config.Config) (*session.TokenStore, error) {
	return session.Open(session.Config{Backends: cfg.Session.Backends, FileDir: cfg.Session.FileDir})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
