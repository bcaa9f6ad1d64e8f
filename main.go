package main

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Kardbord/Warden-bot/warden"
	"github.com/Kardbord/Warden-bot/warden/config"

	// For runtime profiling if enabled in config
	"net/http"
	_ "net/http/pprof"
)

const SetupConfigFile = "config/setup.json"

// setupConfig holds process level settings. Bot behaviour is
// configured separately in warden.BotConfigFile.
type setupConfig struct {
	LogLevel string      `json:"default-log-level"`
	Pprof    pprofConfig `json:"pprof"`
}

type pprofConfig struct {
	Enabled              bool   `json:"enabled"`
	Address              string `json:"address"`
	BlockProfileRate     int    `json:"block-profile-rate"`
	MutexProfileFraction int    `json:"mutex-profile-fraction"`
}

func loadSetup(path string) (setupConfig, error) {
	cfg := setupConfig{LogLevel: log.InfoLevel.String()}
	jsonCfg, err := config.NewJsonConfig(path)
	if err != nil {
		return cfg, err
	}
	if err = json.Unmarshal(jsonCfg.Raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func setupLogging(level string) {
	log.SetReportCaller(true)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.UnixDate,
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			_, file, found := strings.Cut(f.File, "Warden-bot/")
			if !found {
				file = f.File
			}
			return "", fmt.Sprintf("Warden-bot/%s:%d", file, f.Line)
		},
	})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
		log.Warnf(`Unknown log level %q in %s, using "%s"`, level, SetupConfigFile, lvl)
	}
	log.SetLevel(lvl)
}

// startPprof serves profiling data under /debug/pprof/ if enabled.
// See https://pkg.go.dev/net/http/pprof
func startPprof(cfg pprofConfig) {
	if !cfg.Enabled {
		log.Debug("pprof not enabled")
		return
	}
	if cfg.Address == "" {
		log.Warn("pprof is enabled but has no address, not serving profiles")
		return
	}

	runtime.SetBlockProfileRate(cfg.BlockProfileRate)
	runtime.SetMutexProfileFraction(cfg.MutexProfileFraction)
	log.Infof("Serving pprof at %s/debug/pprof/ (block rate %d, mutex fraction %d)",
		cfg.Address, cfg.BlockProfileRate, cfg.MutexProfileFraction)

	go func() {
		log.Error(http.ListenAndServe(cfg.Address, nil))
	}()
}

func main() {
	cfg, err := loadSetup(SetupConfigFile)
	setupLogging(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}

	startPprof(cfg.Pprof)
	warden.RunAndBlock()
}
