// Package cfg holds the ytbridge commands and their configuration.
package cfg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ytbridge/internal/domain/consts"
	"ytbridge/internal/domain/keys"
	"ytbridge/internal/models"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ErrDownloadFailed is returned by the download command when the result is a failure.
var ErrDownloadFailed = errors.New("download failed")

const envPrefix = "YTBRIDGE"

// Application is what the commands run against.
type Application interface {
	Download(ctx context.Context, url, format string) models.DownloadResult
	Serve(ctx context.Context) error
	Binaries(ctx context.Context) ([]models.BinaryRecord, error)
	InstallBinaries(ctx context.Context, arch string) ([]models.BinaryRecord, error)
	Close() error
}

// Opener builds the Application for a command run.
type Opener func(ctx context.Context, s Settings) (Application, error)

// Execute runs the root command against the global viper instance.
func Execute(ctx context.Context, open Opener) error {
	return NewRootCmd(viper.GetViper(), open).ExecuteContext(ctx)
}

// NewRootCmd builds the command tree, binding every flag to v.
func NewRootCmd(v *viper.Viper, open Opener) *cobra.Command {
	var bindErr error

	rootCmd := &cobra.Command{
		Use:           consts.ProgramName,
		Short:         "ytbridge downloads media with the bundled yt-dlp and ffmpeg",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if bindErr != nil {
				return bindErr
			}
			return loadConfigFile(v)
		},
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	bindErr = initProgramFlags(rootCmd, v)

	rootCmd.AddCommand(
		initDownloadCmd(v, open),
		initServeCmd(v, open),
		initBinariesCmds(v, open),
	)
	return rootCmd
}

// Private ////////////////////////////////////////////////////////////////////////////////////////////

// loadConfigFile merges the file named by keys.ConfigFile, if any.
func loadConfigFile(v *viper.Viper) error {
	file := strings.TrimSpace(v.GetString(keys.ConfigFile))
	if file == "" {
		return nil
	}
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", file, err)
	}
	return nil
}

// withApp loads settings, opens the application and runs fn against it.
func withApp(cmd *cobra.Command, v *viper.Viper, open Opener, fn func(ctx context.Context, app Application) error) error {
	s, err := LoadSettings(v)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := open(ctx, s)
	if err != nil {
		return err
	}

	runErr := fn(ctx, app)
	if err := app.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
