// Package config loads Runtime options (spec §6.4) from an optional
// JSONC file, environment variables, and CLI flag overrides, in that
// increasing order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/lightap/lap-com/pkg/runtime"
)

// Config mirrors runtime.Options with JSON tags for the on-disk file
// format (spec §6.4).
type Config struct {
	QMSocketPath          string `json:"qm_socket_path,omitempty"`   //nolint:tagliatelle
	ASILSocketPath        string `json:"asil_socket_path,omitempty"` //nolint:tagliatelle
	HeartbeatIntervalMs   uint32 `json:"heartbeat_interval_ms,omitempty"`
	EnableReaper          bool   `json:"enable_reaper,omitempty"`
	ReaperStaleMultiplier uint64 `json:"reaper_stale_multiplier,omitempty"`
}

// Default returns the spec-mandated defaults (spec §6.4), expressed as
// a Config so it round-trips through the same merge path as a file or
// env override.
func Default() Config {
	d := runtime.DefaultOptions()

	return Config{
		QMSocketPath:          d.QMSocketPath,
		ASILSocketPath:        d.ASILSocketPath,
		HeartbeatIntervalMs:   d.HeartbeatIntervalMs,
		EnableReaper:          d.EnableReaper,
		ReaperStaleMultiplier: d.ReaperStaleMultiplier,
	}
}

// ToOptions converts c to a runtime.Options.
func (c Config) ToOptions() runtime.Options {
	return runtime.Options{
		QMSocketPath:          c.QMSocketPath,
		ASILSocketPath:        c.ASILSocketPath,
		HeartbeatIntervalMs:   c.HeartbeatIntervalMs,
		EnableReaper:          c.EnableReaper,
		ReaperStaleMultiplier: c.ReaperStaleMultiplier,
	}
}

// FlagOverrides carries CLI flag values (§6.5); a nil field means the
// flag was not passed and should not override anything below it in the
// precedence chain.
type FlagOverrides struct {
	QMSocketPath          *string
	ASILSocketPath        *string
	HeartbeatIntervalMs   *uint32
	EnableReaper          *bool
	ReaperStaleMultiplier *uint64
}

var (
	errConfigFileNotFound = errors.New("config: file not found")
	errConfigFileRead     = errors.New("config: failed to read file")
	errConfigInvalid      = errors.New("config: invalid")
	errSocketPathEmpty    = errors.New("config: socket path must not be empty")
)

// Load builds a Config with precedence (highest wins): flags > env >
// file > Default. path may be empty, meaning no file is read; a
// non-empty path that does not exist is an error (the caller asked for
// a specific file).
func Load(path string, env []string, flags FlagOverrides) (Config, error) {
	cfg := Default()

	if path != "" {
		fileCfg, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}

		cfg = mergeNonZero(cfg, fileCfg)
	}

	cfg = applyEnv(cfg, env)
	cfg = applyFlags(cfg, flags)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied, not a tainted request input
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", errConfigFileNotFound, path)
		}

		return Config{}, fmt.Errorf("%w: %s: %w", errConfigFileRead, path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: invalid JSONC: %w", errConfigInvalid, path, err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w %s: invalid JSON: %w", errConfigInvalid, path, err)
	}

	return cfg, nil
}

// mergeNonZero overlays any non-zero-valued field of overlay onto base.
// A config file that wants EnableReaper=false or
// ReaperStaleMultiplier=0 simply omits the field rather than writing
// its zero value explicitly -- JSONC is comment-friendly enough that an
// operator can document the omission instead.
func mergeNonZero(base, overlay Config) Config {
	if overlay.QMSocketPath != "" {
		base.QMSocketPath = overlay.QMSocketPath
	}

	if overlay.ASILSocketPath != "" {
		base.ASILSocketPath = overlay.ASILSocketPath
	}

	if overlay.HeartbeatIntervalMs != 0 {
		base.HeartbeatIntervalMs = overlay.HeartbeatIntervalMs
	}

	if overlay.EnableReaper {
		base.EnableReaper = true
	}

	if overlay.ReaperStaleMultiplier != 0 {
		base.ReaperStaleMultiplier = overlay.ReaperStaleMultiplier
	}

	return base
}

const envPrefix = "LAP_COM_"

func applyEnv(cfg Config, env []string) Config {
	vars := make(map[string]string, len(env))

	for _, e := range env {
		if k, v, ok := strings.Cut(e, "="); ok {
			vars[k] = v
		}
	}

	if v, ok := vars[envPrefix+"QM_SOCKET_PATH"]; ok && v != "" {
		cfg.QMSocketPath = v
	}

	if v, ok := vars[envPrefix+"ASIL_SOCKET_PATH"]; ok && v != "" {
		cfg.ASILSocketPath = v
	}

	if v, ok := vars[envPrefix+"HEARTBEAT_INTERVAL_MS"]; ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.HeartbeatIntervalMs = uint32(n)
		}
	}

	if v, ok := vars[envPrefix+"ENABLE_REAPER"]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.EnableReaper = b
		}
	}

	if v, ok := vars[envPrefix+"REAPER_STALE_MULTIPLIER"]; ok {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.ReaperStaleMultiplier = n
		}
	}

	return cfg
}

func applyFlags(cfg Config, flags FlagOverrides) Config {
	if flags.QMSocketPath != nil {
		cfg.QMSocketPath = *flags.QMSocketPath
	}

	if flags.ASILSocketPath != nil {
		cfg.ASILSocketPath = *flags.ASILSocketPath
	}

	if flags.HeartbeatIntervalMs != nil {
		cfg.HeartbeatIntervalMs = *flags.HeartbeatIntervalMs
	}

	if flags.EnableReaper != nil {
		cfg.EnableReaper = *flags.EnableReaper
	}

	if flags.ReaperStaleMultiplier != nil {
		cfg.ReaperStaleMultiplier = *flags.ReaperStaleMultiplier
	}

	return cfg
}

func validate(cfg Config) error {
	if cfg.QMSocketPath == "" || cfg.ASILSocketPath == "" {
		return errSocketPathEmpty
	}

	return nil
}

// Format returns cfg as indented JSON, for `lap-comctl config show`-style
// diagnostics.
func Format(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("config: format: %w", err)
	}

	return string(data), nil
}
