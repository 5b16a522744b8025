// Package builder builds argument vectors for the bundled downloader tool.
package builder

import (
	"errors"
	"path/filepath"

	"ytbridge/internal/domain/command"
	"ytbridge/internal/domain/consts"
	"ytbridge/internal/domain/logger"
	"ytbridge/internal/models"
)

// DownloadPaths holds the filesystem inputs of a download command.
type DownloadPaths struct {
	Downloader     string
	Transcoder     string
	OutputTemplate string
	CookieFile     string
}

// DownloadCommandBuilder builds the downloader command for one request.
type DownloadCommandBuilder struct {
	Request models.DownloadRequest
	Paths   DownloadPaths
}

// NewDownloadCommandBuilder returns a builder for req. The request must already be validated.
func NewDownloadCommandBuilder(req models.DownloadRequest, p DownloadPaths) *DownloadCommandBuilder {
	return &DownloadCommandBuilder{
		Request: req,
		Paths:   p,
	}
}

// OutputTemplate returns the downloader output template for files written to dir.
func OutputTemplate(dir string) string {
	return filepath.Join(dir, command.FilenameSyntax)
}

// Args returns the full argv, downloader path first.
func (b *DownloadCommandBuilder) Args() ([]string, error) {
	p := b.Paths
	switch {
	case p.Downloader == "":
		return nil, errors.New("downloader path is empty")
	case p.Transcoder == "":
		return nil, errors.New("transcoder path is empty")
	case p.OutputTemplate == "":
		return nil, errors.New("output template is empty")
	case b.Request.URL == "":
		return nil, errors.New("url passed in blank")
	}

	args := []string{
		p.Downloader,
		command.FFmpegLocation, filepath.Dir(p.Transcoder),
		command.Output, p.OutputTemplate,
		command.NoPlaylist,
		b.Request.URL,
	}

	if consts.IsAudioFormat(b.Request.Format) {
		args = append(args,
			command.ExtractAudio,
			command.AudioFormat, b.Request.Format,
			command.EmbedMetadata,
			command.EmbedThumbnail,
			command.AddMetadata,
		)
	} else {
		args = append(args,
			command.Format, command.BestVideoAndAudio,
			command.YtDLPOutputExtension, b.Request.Format,
		)
	}

	if p.CookieFile != "" {
		args = append(args, command.CookiePath, p.CookieFile)
	}

	logger.Pl.Debug().Strs("args", args).Msg("Built argument list")
	return args, nil
}
