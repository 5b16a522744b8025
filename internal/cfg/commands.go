package cfg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"ytbridge/internal/domain/keys"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initDownloadCmd returns the single download command.
func initDownloadCmd(v *viper.Viper, open Opener) *cobra.Command {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download a URL in the given format",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString(keys.URL)
			format, _ := cmd.Flags().GetString(keys.Format)

			return withApp(cmd, v, open, func(ctx context.Context, app Application) error {
				res := app.Download(ctx, url, format)
				fmt.Fprintln(cmd.OutOrStdout(), res.Message)
				if !res.Success {
					return ErrDownloadFailed
				}
				return nil
			})
		},
	}

	downloadCmd.Flags().String(keys.URL, "", "URL to download")
	downloadCmd.Flags().String(keys.Format, "", "Output format (mp3, flac, wav, mp4, mkv)")
	return downloadCmd
}

// initServeCmd returns the web server command.
func initServeCmd(v *viper.Viper, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the download method over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, v, open, func(ctx context.Context, app Application) error {
				return app.Serve(ctx)
			})
		},
	}
}

// initBinariesCmds returns the binaries command and its subcommands.
func initBinariesCmds(v *viper.Viper, open Opener) *cobra.Command {
	binCmd := &cobra.Command{
		Use:   "binaries",
		Short: "Binary commands",
		Long:  "Inspect and install the bundled yt-dlp and ffmpeg binaries.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("please specify a subcommand for binaries, use --help for more information")
		},
	}

	binCmd.AddCommand(listBinariesCmd(v, open))
	binCmd.AddCommand(installBinariesCmd(v, open))
	return binCmd
}

// listBinariesCmd prints the binary registry.
func listBinariesCmd(v *viper.Viper, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed binaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, v, open, func(ctx context.Context, app Application) error {
				recs, err := app.Binaries(ctx)
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No binaries installed.")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tARCH\tSIZE\tSHA256\tINSTALLED\tPATH")
				for _, r := range recs {
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
						r.Name, r.Arch, r.Size, shortHash(r.SHA256), r.InstalledAt.Local().Format(time.DateTime), r.Path)
				}
				return w.Flush()
			})
		},
	}
}

// installBinariesCmd materializes both tools for an architecture.
func installBinariesCmd(v *viper.Viper, open Opener) *cobra.Command {
	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Install the bundled binaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, _ := cmd.Flags().GetString(keys.Arch)

			return withApp(cmd, v, open, func(ctx context.Context, app Application) error {
				recs, err := app.InstallBinaries(ctx, strings.TrimSpace(arch))
				if err != nil {
					return err
				}
				for _, r := range recs {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s\n", r.Name, r.Arch, r.Path)
				}
				return nil
			})
		},
	}

	installCmd.Flags().String(keys.Arch, "", "Architecture to install for (default preferred)")
	return installCmd
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
