package config

import (
	_ "embed"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const (
	ConfigurationName = "config.yaml"
	AppDirName        = "gsh"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var (
	// ErrEventLogDisabled is returned when opening the event log of a
	// configuration that doesn't set one.
	ErrEventLogDisabled = errors.New("event_log is not set")

	// ErrNotLoaded is returned when saving a configuration that wasn't loaded
	// from a directory.
	ErrNotLoaded = errors.New("configuration has no directory")
)

type Configuration struct {
	configFs afero.Fs

	Prompt             string            `json:"prompt" validate:"required"`
	ContinuationPrompt string            `json:"continuation_prompt" validate:"required"`
	Color              string            `json:"color" validate:"oneof=auto always never"`
	HistoryLimit       int               `json:"history_limit" validate:"gte=0"`
	Aliases            map[string]string `json:"aliases" validate:"dive,keys,required,excludesall=/=,endkeys,required"`
	EventLog           string            `json:"event_log"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		return afero.NewOsFs()
	}
	return c.configFs
}

// OpenEventLog opens the event log in an append only state.
func (c *Configuration) OpenEventLog() (afero.File, error) {
	if c.EventLog == "" {
		return nil, ErrEventLogDisabled
	}
	return c.fs().OpenFile(c.EventLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadEventLog opens the event log for reading.
func (c *Configuration) ReadEventLog() (afero.File, error) {
	if c.EventLog == "" {
		return nil, ErrEventLogDisabled
	}
	return c.fs().OpenFile(c.EventLog, os.O_RDONLY, 0600)
}

// Save writes the configuration back to the directory it was loaded from.
func (c *Configuration) Save() error {
	if c.configFs == nil {
		return ErrNotLoaded
	}
	if err := c.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return afero.WriteFile(c.configFs, ConfigurationName, data, 0600)
}

// UseColor reports whether output should be colored given whether it's a
// terminal.
func (c *Configuration) UseColor(isTerminal bool) bool {
	switch c.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return isTerminal
	}
}

// Default returns the built-in configuration. Relative paths resolve against
// the working directory.
func Default() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

// DefaultDir returns the directory the configuration is read from when none
// is given, $XDG_CONFIG_HOME/gsh or its platform equivalent.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppDirName), nil
}

// Load loads the configuration from the directory.
func Load(fsys afero.Fs, path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	configContents, err := afero.ReadFile(fsys, filepath.Join(path, ConfigurationName))
	if err != nil {
		return nil, err
	}
	var out Configuration
	if err := yaml.UnmarshalStrict(configContents, &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	out.configFs = afero.NewBasePathFs(fsys, path)
	return &out, nil
}

// LoadOrDefault loads the configuration from the directory, falling back to
// the default if the directory has none.
func LoadOrDefault(fsys afero.Fs, path string) (*Configuration, error) {
	cfg, err := Load(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Initialize writes the default configuration to the directory if it
// doesn't have one and loads it.
func Initialize(fsys afero.Fs, path string, logger *log.Logger) (*Configuration, error) {
	if err := fsys.MkdirAll(path, 0700); err != nil {
		return nil, err
	}

	configPath := filepath.Join(path, ConfigurationName)
	switch ok, err := afero.Exists(fsys, configPath); {
	case err != nil:
		return nil, err
	case ok:
		logger.Printf("%s already exists, not overwriting", configPath)
	default:
		logger.Printf("writing %s", configPath)
		if err := afero.WriteFile(fsys, configPath, defaultConfigData, 0600); err != nil {
			return nil, err
		}
	}

	return Load(fsys, path)
}
