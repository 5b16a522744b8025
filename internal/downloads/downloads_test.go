package downloads

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"ytbridge/internal/command/execute"
	"ytbridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInstaller returns paths under dir without touching the filesystem.
type fakeInstaller struct {
	dir   string
	err   error
	mu    sync.Mutex
	calls []string
}

func (f *fakeInstaller) EnsureBinary(_ context.Context, name, arch string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, arch+"/"+name)
	if f.err != nil {
		return "", f.err
	}
	return filepath.Join(f.dir, arch, name), nil
}

// fakeRunner records every argv and reports overlapping runs.
type fakeRunner struct {
	out   execute.Outcome
	err   error
	delay time.Duration
	block chan struct{}

	mu         sync.Mutex
	argvs      [][]string
	running    int
	maxRunning int
}

func (f *fakeRunner) Run(ctx context.Context, argv []string) (execute.Outcome, error) {
	f.mu.Lock()
	f.argvs = append(f.argvs, argv)
	f.running++
	f.maxRunning = max(f.maxRunning, f.running)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.running--
		f.mu.Unlock()
	}()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return execute.Outcome{ExitCode: -1}, ctx.Err()
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.out, f.err
}

func (f *fakeRunner) calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.argvs)
}

type fakeCookies struct {
	path string
	err  error
}

func (f fakeCookies) Export(context.Context, string) (string, error) {
	return f.path, f.err
}

func newTestOrchestrator(t *testing.T, r execute.Runner, inst *fakeInstaller) (*Orchestrator, string) {
	t.Helper()

	outDir := filepath.Join(t.TempDir(), "out")
	if inst == nil {
		inst = &fakeInstaller{dir: "/data/bin"}
	}
	o, err := NewOrchestrator(Options{
		Installer:      inst,
		Runner:         r,
		SupportedArchs: func() []string { return []string{"x86_64", "x86"} },
		OutputDir:      outDir,
	})
	require.NoError(t, err)
	return o, outDir
}

func TestDownload_EndToEnd(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{out: execute.Outcome{ExitCode: 0, Output: "done"}}
	inst := &fakeInstaller{dir: "/data/bin"}
	o, outDir := newTestOrchestrator(t, r, inst)

	res := o.Download(context.Background(), "https://example.com/v", "mp3")
	assert.Equal(t, models.DownloadResult{Success: true, Message: "Completed.\ndone"}, res)

	assert.Equal(t, []string{"x86_64/yt-dlp", "x86_64/ffmpeg"}, inst.calls)

	calls := r.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{
		"/data/bin/x86_64/yt-dlp",
		"--ffmpeg-location", "/data/bin/x86_64",
		"-o", filepath.Join(outDir, "%(title)s.%(ext)s"),
		"--no-playlist",
		"https://example.com/v",
		"--extract-audio",
		"--audio-format", "mp3",
		"--embed-metadata",
		"--embed-thumbnail",
		"--add-metadata",
	}, calls[0])

	info, err := os.Stat(outDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDownload_ValidationShortCircuits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, url, format, want string
	}{
		{name: "empty url", url: "", format: "mp4", want: "URL is required"},
		{name: "blank url", url: "   ", format: "mp3", want: "URL is required"},
		{name: "unsupported", url: "https://x", format: "avi", want: "Unsupported format: avi"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := &fakeRunner{}
			inst := &fakeInstaller{dir: "/data/bin"}
			o, outDir := newTestOrchestrator(t, r, inst)

			res := o.Download(context.Background(), tt.url, tt.format)
			assert.Equal(t, models.DownloadResult{Success: false, Message: tt.want}, res)
			assert.Empty(t, r.calls(), "no process should run")
			assert.Empty(t, inst.calls, "no binary should be installed")

			_, err := os.Stat(outDir)
			assert.True(t, os.IsNotExist(err), "output directory should not be created")
		})
	}
}

func TestDownload_NonZeroExit(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{out: execute.Outcome{ExitCode: 1, Output: "ERROR: Unsupported URL"}}
	o, _ := newTestOrchestrator(t, r, nil)

	res := o.Download(context.Background(), "https://example.com/v", "mkv")
	assert.False(t, res.Success)
	assert.Equal(t, "Failed with code 1.\nERROR: Unsupported URL", res.Message)
}

func TestDownload_VideoBranch(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{}
	o, _ := newTestOrchestrator(t, r, nil)

	res := o.Download(context.Background(), " https://example.com/v ", " MP4 ")
	require.True(t, res.Success)

	argv := r.calls()[0]
	assert.Equal(t, []string{"-f", "bv*+ba/b", "--merge-output-format", "mp4"}, argv[len(argv)-4:])
	assert.Contains(t, argv, "https://example.com/v")
	assert.NotContains(t, argv, "--extract-audio")
}

func TestDownload_SetupErrors(t *testing.T) {
	t.Parallel()

	t.Run("installer", func(t *testing.T) {
		t.Parallel()

		r := &fakeRunner{}
		o, _ := newTestOrchestrator(t, r, &fakeInstaller{err: errors.New("bundled binary not found: bin/android/x86_64/yt-dlp")})

		res := o.Download(context.Background(), "https://example.com/v", "mp3")
		assert.Equal(t, models.Failure("bundled binary not found: bin/android/x86_64/yt-dlp"), res)
		assert.Empty(t, r.calls())
	})

	t.Run("spawn", func(t *testing.T) {
		t.Parallel()

		r := &fakeRunner{err: errors.New("failed to start yt-dlp: permission denied")}
		o, _ := newTestOrchestrator(t, r, nil)

		res := o.Download(context.Background(), "https://example.com/v", "mp3")
		assert.Equal(t, models.Failure("failed to start yt-dlp: permission denied"), res)
	})

	t.Run("cookies", func(t *testing.T) {
		t.Parallel()

		r := &fakeRunner{}
		o, _ := newTestOrchestrator(t, r, nil)
		o.opts.Cookies = fakeCookies{err: errors.New("store locked")}

		res := o.Download(context.Background(), "https://example.com/v", "mp3")
		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "store locked")
		assert.Empty(t, r.calls())
	})
}

func TestDownload_CookieFileAppended(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{}
	o, _ := newTestOrchestrator(t, r, nil)
	o.opts.Cookies = fakeCookies{path: "/data/cookies/example.com.txt"}

	res := o.Download(context.Background(), "https://example.com/v", "wav")
	require.True(t, res.Success)

	argv := r.calls()[0]
	assert.Equal(t, []string{"--cookies", "/data/cookies/example.com.txt"}, argv[len(argv)-2:])
}

func TestDownload_Timeout(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{block: make(chan struct{})}
	o, _ := newTestOrchestrator(t, r, nil)
	o.opts.Timeout = 50 * time.Millisecond

	res := o.Download(context.Background(), "https://example.com/v", "mp3")
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, context.DeadlineExceeded.Error())
}

func TestDownload_DefaultArch(t *testing.T) {
	t.Parallel()

	inst := &fakeInstaller{dir: "/data/bin"}
	o, err := NewOrchestrator(Options{
		Installer:      inst,
		Runner:         &fakeRunner{},
		SupportedArchs: func() []string { return nil },
		OutputDir:      t.TempDir(),
	})
	require.NoError(t, err)

	res := o.Download(context.Background(), "https://example.com/v", "mp3")
	require.True(t, res.Success)
	assert.Equal(t, []string{"arm64-v8a/yt-dlp", "arm64-v8a/ffmpeg"}, inst.calls)
}

func TestNewOrchestrator_RequiresDeps(t *testing.T) {
	t.Parallel()

	_, err := NewOrchestrator(Options{Runner: &fakeRunner{}})
	assert.Error(t, err)
	_, err = NewOrchestrator(Options{Installer: &fakeInstaller{}})
	assert.Error(t, err)
}

func TestResolveOutputDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	preferred := filepath.Join(root, "public")
	fallback := filepath.Join(root, "private", "downloads")

	got, err := ResolveOutputDir(preferred, fallback)
	require.NoError(t, err)
	assert.Equal(t, preferred, got)

	got, err = ResolveOutputDir("", fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, got)
	_, err = os.Stat(fallback)
	assert.NoError(t, err)

	_, err = ResolveOutputDir("", "")
	assert.Error(t, err)
}

func TestResolveOutputDir_PreferredUnavailable(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	home := filepath.Join(root, "home")
	require.NoError(t, os.WriteFile(home, []byte("not a directory"), 0o644))
	preferred := filepath.Join(home, "Downloads")
	fallback := filepath.Join(root, "fallback")

	got, err := ResolveOutputDir(preferred, fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, got)
	info, err := os.Stat(fallback)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Both unavailable.
	_, err = ResolveOutputDir(preferred, filepath.Join(home, "fallback"))
	assert.ErrorContains(t, err, "failed to create downloads directory")
}

func TestMapOutcome(t *testing.T) {
	t.Parallel()

	assert.Equal(t, models.DownloadResult{Success: true, Message: "Completed.\n"}, MapOutcome(execute.Outcome{}))
	for _, code := range []int{1, 2, 101, -1} {
		res := MapOutcome(execute.Outcome{ExitCode: code, Output: "out"})
		assert.False(t, res.Success)
		assert.True(t, strings.HasPrefix(res.Message, "Failed with code "), res.Message)
		assert.True(t, strings.HasSuffix(res.Message, ".\nout"), res.Message)
	}
	assert.Equal(t, "Failed with code 101.\nout", MapOutcome(execute.Outcome{ExitCode: 101, Output: "out"}).Message)
}
