// Package app wires the covercache components together: configuration,
// logging, the durable store, provider clients and the resolution service.
// Commands share one App instance for the lifetime of the process.
package app

import (
	"fmt"
	"log/slog"

	"github.com/fennecbyte/covercache/internal/artwork"
	"github.com/fennecbyte/covercache/internal/conf"
	"github.com/fennecbyte/covercache/internal/datastore"
	"github.com/fennecbyte/covercache/internal/diskcache"
	"github.com/fennecbyte/covercache/internal/httpclient"
	"github.com/fennecbyte/covercache/internal/logging"
	"github.com/fennecbyte/covercache/internal/mbz"
	"github.com/fennecbyte/covercache/internal/provider"
)

// App holds the wired-up runtime for the CLI commands.
type App struct {
	Settings *conf.Settings
	Store    *datastore.SQLiteStore
	Service  *artwork.Service

	closeLog func() error
}

// Init initializes logging, opens the durable store and constructs the
// resolution service.
func (a *App) Init() error {
	level := slog.LevelInfo
	if a.Settings.Debug {
		level = slog.LevelDebug
	}
	logging.Init(level)

	if a.Settings.Log.Path != "" {
		closeLog, err := logging.InitFile(a.Settings.Log.Path, level, &logging.FileLoggerOptions{
			MaxSizeMB:  a.Settings.Log.MaxSizeMB,
			MaxBackups: a.Settings.Log.MaxBackups,
			MaxAgeDays: a.Settings.Log.MaxAgeDays,
		})
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		a.closeLog = closeLog
	}

	a.Store = datastore.New(a.Settings.Database.Path)
	if err := a.Store.Open(); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	client := httpclient.New(&httpclient.Config{
		UserAgent: a.Settings.Providers.UserAgent,
	})

	caa := provider.NewCoverArtArchive(a.Settings.Providers.CoverArtArchive.Endpoint, client)
	deezer := provider.NewDeezer(a.Settings.Providers.Deezer.Endpoint, client)
	resolver := mbz.New(
		a.Settings.Providers.MusicBrainz.Endpoint,
		client,
		a.Settings.Providers.MusicBrainz.RequestsPerSecond,
	)
	disk := diskcache.New(a.Settings.AssetsDir(), client)

	a.Service = artwork.NewService(a.Store, disk, caa, deezer, resolver, artwork.Config{
		ThrottleDelay:      a.Settings.Resolver.ThrottleDelay,
		NotFoundTTL:        a.Settings.Resolver.NotFoundTTL,
		ProxyErrorCooldown: a.Settings.Resolver.ProxyErrorCooldown,
	})

	if a.Settings.Notify.Enabled && len(a.Settings.Notify.URLs) > 0 {
		err := a.Service.Notifier().EnablePush(a.Settings.Notify.URLs, a.Settings.Notify.Timeout)
		if err != nil {
			return fmt.Errorf("failed to configure notification push: %w", err)
		}
	}

	return nil
}

// Shutdown releases everything Init acquired.
func (a *App) Shutdown() {
	if a.Service != nil {
		a.Service.Close()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			logging.Warn("Failed to close database", "error", err)
		}
	}
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}
