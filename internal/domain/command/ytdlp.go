// Package command holds the flag vocabulary of the bundled tools.
package command

// Tool names.
const (
	YTDLP  = "yt-dlp"
	FFmpeg = "ffmpeg"
)

// General
const (
	CookiePath     = "--cookies"
	FFmpegLocation = "--ffmpeg-location"
	FilenameSyntax = "%(title)s.%(ext)s"
	NoPlaylist     = "--no-playlist"
	Output         = "-o"
)

// Audio extraction
const (
	AddMetadata    = "--add-metadata"
	AudioFormat    = "--audio-format"
	EmbedMetadata  = "--embed-metadata"
	EmbedThumbnail = "--embed-thumbnail"
	ExtractAudio   = "--extract-audio"
)

// Video selection
const (
	Format               = "-f"
	BestVideoAndAudio    = "bv*+ba/b"
	YtDLPOutputExtension = "--merge-output-format"
)
