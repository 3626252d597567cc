// Package config holds the one mutable record gloam manages: the current
// dim settings. It owns the merge semantics for partial updates, the parser
// that turns a forwarded command line back into an update, and the optional
// config-file defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	// DefaultAlpha is the dim opacity used when none has ever been set.
	DefaultAlpha = 0.5

	// MaxAlpha is the opacity ceiling enforced unless an update carries the
	// allow-opaque override. A fully opaque overlay on every output locks
	// the user out of their own session.
	MaxAlpha = 0.9
)

// Settings is the stored configuration record.
type Settings struct {
	Alpha       float64
	Radius      int
	Output      string // "" means all outputs
	AllowOpaque bool
}

// Update is a partial settings change. Alpha and Radius merge by presence:
// nil keeps the stored value. Output, Command, Detached and AllowOpaque are
// always replaced wholesale.
type Update struct {
	Alpha       *float64
	Radius      *int
	Output      string
	Command     string
	Detached    bool
	AllowOpaque bool
}

// Defaults returns the settings seeded on first instantiation.
func Defaults() Settings {
	return Settings{Alpha: DefaultAlpha}
}

// FilePath returns the user config file location,
// $XDG_CONFIG_HOME/gloam/config.toml by way of os.UserConfigDir.
func FilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(dir, "gloam", "config.toml"), nil
}

// LoadFile reads the user config file and returns its contents as an
// Update. A missing file yields an empty update and no error; only an
// unreadable or malformed file is reported.
func LoadFile() (Update, error) {
	path, err := FilePath()
	if err != nil {
		return Update{}, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Update{}, nil
	}
	return LoadFileFrom(path)
}

// LoadFileFrom reads defaults from an explicit path. Recognized keys:
// alpha, radius, output, allow_opaque.
func LoadFileFrom(path string) (Update, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Update{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var u Update
	if v.IsSet("alpha") {
		a := v.GetFloat64("alpha")
		u.Alpha = &a
	}
	if v.IsSet("radius") {
		r := v.GetInt("radius")
		u.Radius = &r
	}
	u.Output = v.GetString("output")
	u.AllowOpaque = v.GetBool("allow_opaque")
	return u, nil
}
