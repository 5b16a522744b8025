package main

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"ytbridge/internal/cfg"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 1, exitCode(cfg.ErrDownloadFailed))
	assert.Equal(t, 1, exitCode(fmt.Errorf("wrapped: %w", cfg.ErrDownloadFailed)))
	assert.Equal(t, 1, exitCode(errors.New("bad flag")))
}

func TestCleanupRecoversPanic(t *testing.T) {
	t.Parallel()

	err := func() (err error) {
		defer cleanup(time.Now(), &err)
		panic("boom")
	}()
	assert.EqualError(t, err, "panic: boom")
}
