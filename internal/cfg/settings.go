package cfg

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ytbridge/internal/domain/keys"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Settings is the resolved program configuration.
type Settings struct {
	DataDir            string
	DBPath             string
	LogFile            string
	LogLevel           string
	AssetsDir          string
	AssetPlatform      string
	SupportedArchs     []string
	OutputDir          string
	DownloadTimeout    time.Duration
	CookiesFromBrowser string
	ListenAddr         string
}

// LoadSettings reads Settings out of v and checks them.
func LoadSettings(v *viper.Viper) (Settings, error) {
	s := Settings{
		DataDir:            strings.TrimSpace(v.GetString(keys.DataDir)),
		DBPath:             strings.TrimSpace(v.GetString(keys.DBPath)),
		LogFile:            strings.TrimSpace(v.GetString(keys.LogFile)),
		LogLevel:           strings.ToLower(strings.TrimSpace(v.GetString(keys.LogLevel))),
		AssetsDir:          strings.TrimSpace(v.GetString(keys.AssetsDir)),
		AssetPlatform:      strings.TrimSpace(v.GetString(keys.AssetPlatform)),
		SupportedArchs:     splitList(v.GetStringSlice(keys.SupportedArchs)),
		OutputDir:          strings.TrimSpace(v.GetString(keys.OutputDir)),
		DownloadTimeout:    v.GetDuration(keys.DownloadTimeout),
		CookiesFromBrowser: strings.ToLower(strings.TrimSpace(v.GetString(keys.CookiesFromBrowser))),
		ListenAddr:         strings.TrimSpace(v.GetString(keys.ListenAddr)),
	}

	if err := s.validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Private ////////////////////////////////////////////////////////////////////////////////////////////

// validate checks the values that cannot be caught by flag parsing.
func (s Settings) validate() error {
	if s.LogLevel != "" {
		if _, err := zerolog.ParseLevel(s.LogLevel); err != nil {
			return fmt.Errorf("invalid %s %q: %w", keys.LogLevel, s.LogLevel, err)
		}
	}
	if s.DownloadTimeout < 0 {
		return fmt.Errorf("%s cannot be negative (got %v)", keys.DownloadTimeout, s.DownloadTimeout)
	}
	if s.ListenAddr == "" {
		return errors.New(keys.ListenAddr + " is empty")
	}
	return nil
}

// splitList flattens comma separated entries and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, part := range strings.Split(entry, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
