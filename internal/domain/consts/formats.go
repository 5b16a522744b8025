// Package consts holds constants used across ytbridge.
package consts

import "slices"

// Audio formats are extracted from the best available stream and transcoded.
var AudioFormats = []string{"mp3", "flac", "wav"}

// Video formats are remuxed or transcoded into the requested container.
var VideoFormats = []string{"mp4", "mkv"}

// IsAudioFormat reports whether f is one of the audio output formats.
func IsAudioFormat(f string) bool {
	return slices.Contains(AudioFormats, f)
}

// IsVideoFormat reports whether f is one of the video container formats.
func IsVideoFormat(f string) bool {
	return slices.Contains(VideoFormats, f)
}

// IsSupportedFormat reports whether f is a recognized output format.
func IsSupportedFormat(f string) bool {
	return IsAudioFormat(f) || IsVideoFormat(f)
}
