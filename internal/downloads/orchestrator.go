// Package downloads runs download requests against the bundled tools.
package downloads

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"ytbridge/internal/arch"
	"ytbridge/internal/command/builder"
	"ytbridge/internal/command/execute"
	"ytbridge/internal/domain/command"
	"ytbridge/internal/domain/consts"
	"ytbridge/internal/domain/logger"
	"ytbridge/internal/metrics"
	"ytbridge/internal/models"
	"ytbridge/internal/validation"
)

// BinaryInstaller materializes a bundled tool for an architecture.
type BinaryInstaller interface {
	EnsureBinary(ctx context.Context, name, arch string) (string, error)
}

// CookieExporter writes a cookie file for a URL, returning "" when there is none.
type CookieExporter interface {
	Export(ctx context.Context, rawURL string) (string, error)
}

// Options configures an Orchestrator.
type Options struct {
	Installer BinaryInstaller
	Runner    execute.Runner
	Cookies   CookieExporter

	// SupportedArchs returns the platform's ordered architecture list.
	SupportedArchs func() []string

	// OutputDir is the preferred downloads directory, FallbackDir is used when it is empty.
	OutputDir   string
	FallbackDir string

	// Timeout bounds each tool run. Zero means no timeout.
	Timeout time.Duration
}

// Orchestrator turns a download request into a structured result.
type Orchestrator struct {
	opts Options
}

// NewOrchestrator returns an Orchestrator. Installer and Runner are required.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Installer == nil {
		return nil, fmt.Errorf("binary installer is nil")
	}
	if opts.Runner == nil {
		return nil, fmt.Errorf("process runner is nil")
	}
	if opts.SupportedArchs == nil {
		opts.SupportedArchs = arch.Supported
	}
	return &Orchestrator{opts: opts}, nil
}

// Download validates url and format, then runs the download on the calling goroutine.
// It never returns an error: every failure is encoded in the result.
func (o *Orchestrator) Download(ctx context.Context, url, format string) models.DownloadResult {
	req, err := validation.ValidateRequest(models.DownloadRequest{URL: url, Format: format})
	if err != nil {
		metrics.DownloadsTotal.WithLabelValues(metrics.StatusInvalid).Inc()
		return models.Failure(err.Error())
	}
	return o.run(ctx, req)
}

// run executes an already validated request.
func (o *Orchestrator) run(ctx context.Context, req models.DownloadRequest) (res models.DownloadResult) {
	log := logger.Pl.With().Str("url", req.URL).Str("format", req.Format).Logger()

	defer func() {
		status := metrics.StatusSuccess
		if !res.Success {
			status = metrics.StatusFailure
		}
		metrics.DownloadsTotal.WithLabelValues(status).Inc()
	}()

	argv, err := o.prepare(ctx, req)
	if err != nil {
		log.Error().Err(err).Msg("Download setup failed")
		return models.FailureFromError(err)
	}

	runCtx := ctx
	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := o.opts.Runner.Run(runCtx, argv)
	metrics.DownloadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Error().Err(err).Msg("Download command failed to run")
		return models.FailureFromError(err)
	}

	res = MapOutcome(out)
	if res.Success {
		log.Info().Dur("elapsed", time.Since(start)).Msg("Download completed")
	} else {
		log.Warn().Int("exit_code", out.ExitCode).Msg("Download failed")
	}
	return res
}

// prepare installs the tools, resolves the output directory and builds argv.
func (o *Orchestrator) prepare(ctx context.Context, req models.DownloadRequest) ([]string, error) {
	a := arch.Preferred(o.opts.SupportedArchs())

	downloader, err := o.opts.Installer.EnsureBinary(ctx, command.YTDLP, a)
	if err != nil {
		return nil, err
	}
	transcoder, err := o.opts.Installer.EnsureBinary(ctx, command.FFmpeg, a)
	if err != nil {
		return nil, err
	}

	outDir, err := ResolveOutputDir(o.opts.OutputDir, o.opts.FallbackDir)
	if err != nil {
		return nil, err
	}

	var cookieFile string
	if o.opts.Cookies != nil {
		if cookieFile, err = o.opts.Cookies.Export(ctx, req.URL); err != nil {
			return nil, fmt.Errorf("failed to export cookies: %w", err)
		}
	}

	logger.Pl.Debug().
		Str("arch", a).
		Str("output_dir", outDir).
		Msg("Prepared download")

	return builder.NewDownloadCommandBuilder(req, builder.DownloadPaths{
		Downloader:     downloader,
		Transcoder:     transcoder,
		OutputTemplate: builder.OutputTemplate(outDir),
		CookieFile:     cookieFile,
	}).Args()
}

// ResolveOutputDir creates and returns preferred, falling back to fallback when
// preferred is empty or cannot be created.
func ResolveOutputDir(preferred, fallback string) (string, error) {
	var errs []error
	for _, dir := range []string{preferred, fallback} {
		if dir == "" {
			continue
		}
		dir = filepath.Clean(dir)
		if err := os.MkdirAll(dir, consts.PermsDownloadDir); err != nil {
			logger.Pl.Warn().Err(err).Str("dir", dir).Msg("Downloads directory unavailable")
			errs = append(errs, fmt.Errorf("failed to create downloads directory %s: %w", dir, err))
			continue
		}
		return dir, nil
	}

	if len(errs) == 0 {
		return "", errors.New("no downloads directory available")
	}
	return "", errors.Join(errs...)
}

// MapOutcome maps a finished process to a result. Exit code 0 is the only success.
func MapOutcome(out execute.Outcome) models.DownloadResult {
	if out.ExitCode == 0 {
		return models.DownloadResult{
			Success: true,
			Message: consts.MsgCompleted + "\n" + out.Output,
		}
	}
	return models.DownloadResult{
		Success: false,
		Message: "Failed with code " + strconv.Itoa(out.ExitCode) + ".\n" + out.Output,
	}
}
