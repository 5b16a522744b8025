// Package keys holds the configuration keys shared by flags, env vars and config files.
package keys

// Program directories and files.
const (
	ConfigFile string = "config-file"
	DataDir    string = "data-dir"
	DBPath     string = "db-path"
	LogFile    string = "log-file"
	LogLevel   string = "log-level"
)

// Bundled tools.
const (
	AssetsDir      string = "assets-dir"
	AssetPlatform  string = "asset-platform"
	SupportedArchs string = "supported-archs"
	Arch           string = "arch"
)

// Download operations.
const (
	URL                string = "url"
	Format             string = "format"
	OutputDir          string = "output-dir"
	DownloadTimeout    string = "download-timeout"
	CookiesFromBrowser string = "cookies-from-browser"
)

// Web related.
const (
	ListenAddr string = "listen-addr"
)
