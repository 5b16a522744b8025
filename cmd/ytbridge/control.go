package main

import (
	"fmt"
	"time"

	"ytbridge/internal/domain/logger"
)

// cleanup turns a panic in the command run into an error and logs the run time.
func cleanup(startTime time.Time, err *error) {
	if r := recover(); r != nil {
		logger.Pl.Error().Interface("panic", r).Msg("Panic occurred")
		*err = fmt.Errorf("panic: %v", r)
	}
	logger.Pl.Debug().Dur("elapsed", time.Since(startTime)).Msg("ytbridge exiting")
}
