// Package paths initializes ytbridge's filepaths, directories, etc.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ytbridge/internal/domain/consts"
)

const (
	progDir       = ".ytbridge"
	binDir        = "bin"
	cookieDir     = "cookies"
	downloadsDir  = "downloads"
	dbFile        = "ytbridge.db"
	logFile       = "ytbridge.log"
	assetsDir     = "assets"
	userDownloads = "Downloads"
)

// Dirs holds the program's private file and directory locations.
type Dirs struct {
	Data      string
	Bin       string
	Cookies   string
	Downloads string
	Assets    string
	DBFile    string
	LogFile   string
}

// InitProgFilesDirs resolves the program directories under dataDir, creating dataDir
// if needed. An empty dataDir defaults to ~/.ytbridge.
func InitProgFilesDirs(dataDir string) (Dirs, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Dirs{}, errors.New("failed to get home directory")
		}
		dataDir = filepath.Join(home, progDir)
	}

	if err := os.MkdirAll(dataDir, consts.PermsGenericDir); err != nil {
		return Dirs{}, fmt.Errorf("failed to make directories: %w", err)
	}

	return Dirs{
		Data:      dataDir,
		Bin:       filepath.Join(dataDir, binDir),
		Cookies:   filepath.Join(dataDir, cookieDir),
		Downloads: filepath.Join(dataDir, downloadsDir),
		Assets:    filepath.Join(dataDir, assetsDir),
		DBFile:    filepath.Join(dataDir, dbFile),
		LogFile:   filepath.Join(dataDir, logFile),
	}, nil
}

// PublicDownloadsDir returns the user's downloads folder, or "" when the home
// directory cannot be determined.
func PublicDownloadsDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, userDownloads)
}
