// Package app wires the program components together for a command run.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"ytbridge/internal/arch"
	"ytbridge/internal/binaries"
	"ytbridge/internal/cfg"
	"ytbridge/internal/command/execute"
	"ytbridge/internal/cookies"
	"ytbridge/internal/database"
	"ytbridge/internal/domain/command"
	"ytbridge/internal/domain/consts"
	"ytbridge/internal/domain/logger"
	"ytbridge/internal/domain/paths"
	"ytbridge/internal/downloads"
	"ytbridge/internal/models"
	"ytbridge/internal/server"
	"ytbridge/internal/utils/logging"
	"ytbridge/internal/validation"
)

// App holds the opened program components.
type App struct {
	settings cfg.Settings
	dirs     paths.Dirs

	db        *database.Database
	store     *database.BinaryStore
	control   *database.ProgControl
	installer *binaries.Installer
	queue     *downloads.Queue
	archs     func() []string
	logCloser io.Closer

	// ctx bounds background work such as the heartbeat.
	ctx    context.Context
	cancel context.CancelFunc

	claimOnce sync.Once
	claimErr  error
	claimed   bool
	heartbeat sync.WaitGroup
}

// Open builds the application from s, logging to stderr.
func Open(ctx context.Context, s cfg.Settings) (cfg.Application, error) {
	a, err := open(ctx, s, os.Stderr)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// open builds the application, logging to console.
func open(_ context.Context, s cfg.Settings, console io.Writer) (a *App, err error) {
	dirs, err := paths.InitProgFilesDirs(s.DataDir)
	if err != nil {
		return nil, err
	}

	a = &App{
		settings: s,
		dirs:     dirs,
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	defer func() {
		if err != nil {
			a.closeResources()
		}
	}()

	// Logging
	pl, logCloser, err := logging.SetupLogging(logging.Config{
		Level:       s.LogLevel,
		LogFilePath: firstNonEmpty(s.LogFile, dirs.LogFile),
		Console:     console,
	})
	if err != nil {
		return nil, err
	}
	logger.Pl = pl
	a.logCloser = logCloser

	// Database & stores
	a.db, err = database.InitDB(firstNonEmpty(s.DBPath, dirs.DBFile))
	if err != nil {
		return nil, err
	}
	a.store = database.NewBinaryStore(a.db.DB)
	a.control = database.NewProgController(a.db.DB)

	// Bundled tools
	a.installer, err = binaries.NewInstaller(
		os.DirFS(firstNonEmpty(s.AssetsDir, dirs.Assets)),
		s.AssetPlatform,
		dirs.Bin,
		binaries.WithRecorder(a.store),
	)
	if err != nil {
		return nil, err
	}

	a.archs = arch.Supported
	if len(s.SupportedArchs) > 0 {
		configured := append([]string(nil), s.SupportedArchs...)
		a.archs = func() []string { return configured }
	}

	opts := downloads.Options{
		Installer:      a.installer,
		Runner:         execute.ProcessRunner{},
		SupportedArchs: a.archs,
		OutputDir:      firstNonEmpty(s.OutputDir, paths.PublicDownloadsDir()),
		FallbackDir:    dirs.Downloads,
		Timeout:        s.DownloadTimeout,
	}
	if s.CookiesFromBrowser != "" {
		opts.Cookies = cookies.NewExporter(s.CookiesFromBrowser, dirs.Cookies)
	}

	orch, err := downloads.NewOrchestrator(opts)
	if err != nil {
		return nil, err
	}
	a.queue = downloads.NewQueue(orch)
	a.queue.Start()

	logger.Pl.Debug().
		Str("data_dir", dirs.Data).
		Str("output_dir", opts.OutputDir).
		Strs("archs", a.archs()).
		Msg("Application ready")

	return a, nil
}

// Download queues a download and waits for its result. Invalid requests are answered
// before the program row is claimed.
func (a *App) Download(ctx context.Context, url, format string) models.DownloadResult {
	if _, err := validation.ValidateRequest(models.DownloadRequest{URL: url, Format: format}); err != nil {
		return <-a.queue.Submit(url, format)
	}
	if err := a.claim(ctx); err != nil {
		return models.FailureFromError(err)
	}

	select {
	case res := <-a.queue.Submit(url, format):
		return res
	case <-ctx.Done():
		return models.FailureFromError(ctx.Err())
	}
}

// Serve runs the web server until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	if err := a.claim(ctx); err != nil {
		return err
	}
	return server.StartServer(ctx, a.settings.ListenAddr, a.queue)
}

// Binaries lists the binary registry.
func (a *App) Binaries(ctx context.Context) ([]models.BinaryRecord, error) {
	return a.store.List(ctx)
}

// InstallBinaries materializes both tools for archName, or the preferred architecture
// when archName is empty.
func (a *App) InstallBinaries(ctx context.Context, archName string) ([]models.BinaryRecord, error) {
	if err := a.claim(ctx); err != nil {
		return nil, err
	}
	if archName == "" {
		archName = arch.Preferred(a.archs())
	}

	var recs []models.BinaryRecord
	for _, name := range []string{command.YTDLP, command.FFmpeg} {
		p, err := a.installer.EnsureBinary(ctx, name, archName)
		if err != nil {
			return recs, err
		}

		rec, found, err := a.store.Get(ctx, name, archName)
		if err != nil {
			return recs, err
		}
		if !found {
			rec = models.BinaryRecord{Name: name, Arch: archName, Path: p}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Close drains the download queue and releases every resource.
func (a *App) Close() error {
	stopCtx, cancel := context.WithTimeout(context.Background(), consts.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.queue != nil {
		if err := a.queue.Stop(stopCtx); err != nil {
			errs = append(errs, err)
		}
	}

	a.cancel()
	a.heartbeat.Wait()

	if a.claimed {
		if err := a.control.Quit(stopCtx); err != nil {
			logger.Pl.Error().Err(err).Msg("Failed to mark ytbridge as exited, it won't run again until the heartbeat goes stale")
			errs = append(errs, err)
		}
	}

	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Private ////////////////////////////////////////////////////////////////////////////////////////////

// claim marks this process as the running instance and starts the heartbeat.
func (a *App) claim(ctx context.Context) error {
	a.claimOnce.Do(func() {
		if err := a.control.Start(ctx); err != nil {
			a.claimErr = fmt.Errorf("cannot run downloads: %w", err)
			return
		}
		a.claimed = true

		logger.Pl.Info().Int("pid", a.control.ProcessID).Msg("ytbridge started")

		a.heartbeat.Add(1)
		go func() {
			defer a.heartbeat.Done()
			a.control.StartHeartbeat(a.ctx, consts.HeartbeatInterval)
		}()
	})
	return a.claimErr
}

// closeResources closes the database and log file.
func (a *App) closeResources() error {
	a.cancel()

	var errs []error
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, err)
		}
		a.db = nil
	}
	if a.logCloser != nil {
		if err := a.logCloser.Close(); err != nil {
			errs = append(errs, err)
		}
		a.logCloser = nil
	}
	return errors.Join(errs...)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
