// Package logger holds the program logger.
package logger

import "github.com/rs/zerolog"

// Pl holds the global program logger. It discards everything until main replaces it.
var Pl = zerolog.Nop()
