package cfg

import (
	"errors"
	"fmt"

	"ytbridge/internal/domain/consts"
	"ytbridge/internal/domain/keys"
	"ytbridge/internal/domain/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// initProgramFlags sets the persistent flags shared by every command.
func initProgramFlags(rootCmd *cobra.Command, v *viper.Viper) error {
	pf := rootCmd.PersistentFlags()

	// Files and directories
	pf.String(keys.ConfigFile, "", "Config file to load (any format viper reads)")
	pf.String(keys.DataDir, "", "Program data directory (default ~/.ytbridge)")
	pf.String(keys.DBPath, "", "Binary registry database (default <data-dir>/ytbridge.db)")
	pf.String(keys.AssetsDir, "", "Directory holding bin/<platform>/<arch>/<tool> (default <data-dir>/assets)")
	pf.String(keys.AssetPlatform, consts.DefaultAssetPlatform, "Platform directory inside the assets")
	pf.StringSlice(keys.SupportedArchs, nil, "Ordered architecture list, most preferred first (default detected)")
	pf.String(keys.OutputDir, "", "Downloads directory (default ~/Downloads)")

	// Downloads
	pf.Duration(keys.DownloadTimeout, 0, "Bound on each tool run, 0 for none")
	pf.String(keys.CookiesFromBrowser, "", "Browser to pass cookies from (e.g. firefox, chrome, all)")

	// Program
	pf.String(keys.LogLevel, consts.DefaultLogLevel, "Log level (trace, debug, info, warn, error)")
	pf.String(keys.LogFile, "", "Log file (default <data-dir>/ytbridge.log)")
	pf.String(keys.ListenAddr, consts.DefaultListenAddr, "Address the web server listens on")

	return bindFlags(v, pf)
}

// bindFlags binds every flag in fs to the viper key of the same name.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		if err := bindFlag(v, f.Name, f); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

// bindFlag binds f to key, logging a failure.
func bindFlag(v *viper.Viper, key string, f *pflag.Flag) error {
	if err := v.BindPFlag(key, f); err != nil {
		logger.Pl.Error().Err(err).Str("key", key).Msg("Failed to bind flag")
		return fmt.Errorf("failed to bind flag %q: %w", key, err)
	}
	return nil
}
