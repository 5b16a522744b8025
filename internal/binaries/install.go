// Package binaries materializes the bundled tool binaries into the program's private
// directory, one copy per architecture.
package binaries

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"ytbridge/internal/domain/consts"
	"ytbridge/internal/domain/logger"
	"ytbridge/internal/metrics"
	"ytbridge/internal/models"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrAssetMissing is returned when the bundled assets hold no binary for a name and arch.
var ErrAssetMissing = errors.New("bundled binary not found")

const memoSize = 32

// Recorder persists facts about installed binaries.
type Recorder interface {
	Record(ctx context.Context, rec models.BinaryRecord) error
}

// Installer copies binaries out of a read-only assets filesystem.
type Installer struct {
	assets   fs.FS
	platform string
	binDir   string
	recorder Recorder

	// installed memoizes target paths already known to exist.
	installed *lru.Cache[string, string]

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures an Installer.
type Option func(*Installer)

// WithRecorder records every fresh install through r.
func WithRecorder(r Recorder) Option {
	return func(i *Installer) {
		i.recorder = r
	}
}

// NewInstaller returns an Installer reading bin/<platform>/<arch>/<name> from assets
// and writing <binDir>/<arch>/<name>.
func NewInstaller(assets fs.FS, platform, binDir string, opts ...Option) (*Installer, error) {
	if assets == nil {
		return nil, errors.New("assets filesystem is nil")
	}
	if binDir == "" {
		return nil, errors.New("binary directory is empty")
	}
	if platform == "" {
		platform = consts.DefaultAssetPlatform
	}

	memo, err := lru.New[string, string](memoSize)
	if err != nil {
		return nil, err
	}

	i := &Installer{
		assets:    assets,
		platform:  platform,
		binDir:    binDir,
		installed: memo,
		locks:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// AssetPath returns the slash-separated location of a binary inside the assets filesystem.
func AssetPath(platform, arch, name string) string {
	return path.Join("bin", platform, arch, name)
}

// TargetPath returns where name is materialized for arch.
func (i *Installer) TargetPath(name, arch string) string {
	return filepath.Join(i.binDir, arch, name)
}

// EnsureBinary returns the path of an executable copy of name for arch, copying it out
// of the assets the first time. Calls for an existing copy only check that it exists.
func (i *Installer) EnsureBinary(ctx context.Context, name, arch string) (string, error) {
	if name == "" || arch == "" {
		return "", fmt.Errorf("binary name %q and arch %q must both be set", name, arch)
	}
	key := arch + "/" + name
	target := i.TargetPath(name, arch)

	if _, ok := i.installed.Get(key); ok {
		if exists(target) {
			return target, nil
		}
		i.installed.Remove(key)
	}

	lock := i.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	if exists(target) {
		i.installed.Add(key, target)
		return target, nil
	}

	rec, err := i.install(name, arch, target)
	if err != nil {
		return "", err
	}
	i.installed.Add(key, target)
	metrics.BinaryInstallsTotal.WithLabelValues(name, arch).Inc()

	logger.Pl.Info().
		Str("binary", name).
		Str("arch", arch).
		Str("path", target).
		Int64("size", rec.Size).
		Msg("Installed bundled binary")

	if i.recorder != nil {
		if err := i.recorder.Record(ctx, rec); err != nil {
			logger.Pl.Warn().Err(err).Str("binary", name).Str("arch", arch).Msg("Could not record installed binary")
		}
	}
	return target, nil
}

// Private ////////////////////////////////////////////////////////////////////////////////////////////

// lockFor returns the install lock for key.
func (i *Installer) lockFor(key string) *sync.Mutex {
	i.mu.Lock()
	defer i.mu.Unlock()

	l, ok := i.locks[key]
	if !ok {
		l = new(sync.Mutex)
		i.locks[key] = l
	}
	return l
}

// install copies the asset into a temp file beside target, marks it executable and
// renames it into place.
func (i *Installer) install(name, arch, target string) (models.BinaryRecord, error) {
	src := AssetPath(i.platform, arch, name)

	in, err := i.assets.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.BinaryRecord{}, fmt.Errorf("%w: %s", ErrAssetMissing, src)
		}
		return models.BinaryRecord{}, fmt.Errorf("failed to open asset %s: %w", src, err)
	}
	defer in.Close()

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, consts.PermsBinaryDir); err != nil {
		return models.BinaryRecord{}, fmt.Errorf("failed to create binary directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return models.BinaryRecord{}, fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), in)
	if err != nil {
		return models.BinaryRecord{}, fmt.Errorf("failed to copy asset %s: %w", src, err)
	}
	if err := tmp.Chmod(consts.PermsBinaryFile); err != nil {
		return models.BinaryRecord{}, fmt.Errorf("failed to mark %s executable: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return models.BinaryRecord{}, fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return models.BinaryRecord{}, fmt.Errorf("failed to move %s into place: %w", name, err)
	}
	committed = true

	return models.BinaryRecord{
		Name:        name,
		Arch:        arch,
		Path:        target,
		SHA256:      hex.EncodeToString(h.Sum(nil)),
		Size:        n,
		InstalledAt: time.Now(),
	}, nil
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
