// Package appconfig handles the command line surface and tool settings for
// ssoexport. The CLI takes a single positional profile name; everything else
// (log level, credential verification) comes from an optional settings file
// or SSOEXPORT_ environment variables.
package appconfig

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/docopt/docopt-go"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

const Usage = `Usage:
  ssoexport <profile>
  ssoexport --help

Options:
  -h, --help    Show this help message`

// Settings are process-wide knobs loaded from the settings file and
// environment, never from flags. The shell-evaluable stdout contract leaves
// no room for extra CLI options.
type Settings struct {
	LogLevel string `koanf:"log_level"`
	Verify   bool   `koanf:"verify"`
}

type AppConfig struct {
	ProfileName  string `docopt:"<profile>"`
	SettingsPath string
	Settings     Settings
}

func setLogger(level string) error {
	var l slog.Level

	switch strings.ToLower(level) {
	case "", "info":
		l = slog.LevelInfo
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return fmt.Errorf("unknown log level '%s'", level)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: l,
	}))
	slog.SetDefault(logger)

	return nil
}

func (config *AppConfig) Parse(args []string) error {
	opts, err := docopt.ParseArgs(Usage, args, "ssoexport 0.1")
	if err != nil {
		return fmt.Errorf("error parsing options: %v", err)
	}

	// BIND COMMAND LINE ARGS TO APP CONFIG
	if err := opts.Bind(&config); err != nil {
		return fmt.Errorf("error binding options: %v", err)
	}

	return nil
}

// LoadSettings layers defaults, the optional settings file, and SSOEXPORT_
// environment variables, then installs the process-wide logger.
func (conf *AppConfig) LoadSettings() error {
	if conf.SettingsPath == "" {
		conf.SettingsPath = fmt.Sprintf("%s/.ssoexport.yaml", os.Getenv("HOME"))
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"log_level": "info",
		"verify":    false,
	}, "."), nil); err != nil {
		return fmt.Errorf("failed to load default settings: %w", err)
	}

	slog.Debug("Checking for settings file", "path", conf.SettingsPath)
	if _, err := os.Stat(conf.SettingsPath); err == nil {
		if err := k.Load(file.Provider(conf.SettingsPath), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to load settings file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("error checking settings file: %w", err)
	}

	if err := k.Load(env.Provider("SSOEXPORT_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SSOEXPORT_"))
	}), nil); err != nil {
		return fmt.Errorf("failed to load settings from environment: %w", err)
	}

	if err := k.Unmarshal("", &conf.Settings); err != nil {
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	// SETUP LOGGING
	return setLogger(conf.Settings.LogLevel)
}

func (config *AppConfig) ValidateOptions() error {
	slog.Debug("Validating options")
	if err := config.LoadSettings(); err != nil {
		return fmt.Errorf("error loading settings: %w", err)
	}

	slog.Debug("Checking for profile name")
	if config.ProfileName == "" {
		return fmt.Errorf("a profile name must be supplied")
	}

	return nil
}
