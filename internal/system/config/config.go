// Released under an MIT license. See LICENSE.

// Package config loads the shell's YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	// Env names a configuration file when --config is not given.
	Env = "JOBSH_CONFIG"

	// Name is the configuration file looked for in the home directory.
	Name = ".jobshrc.yaml"
)

// ErrInvalid is returned when a configuration file fails validation.
var ErrInvalid = zerr.New("invalid configuration")

// Config is the shell's configuration.
type Config struct {
	// History is the history file. Empty selects ~/.jobsh_history.
	History string `yaml:"history"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// Prompt is a format with at most one integer verb for the line number.
	Prompt string `yaml:"prompt" validate:"required,prompt"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		LogLevel: "warn",
		Prompt:   "%d: ",
	}
}

// Load reads the configuration named by path, by $JOBSH_CONFIG, or found in
// the home directory, in that order. Only the home directory file may be
// missing.
func Load(filesystem afero.Fs, path string) (*Config, error) {
	required := true

	if path == "" {
		path = os.Getenv(Env)
	}

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Default(), nil
		}

		path = filepath.Join(home, Name)
		required = false
	}

	data, err := afero.ReadFile(filesystem, path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return Default(), nil
	} else if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read config file"), "path", path)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}

	return c, nil
}

// Parse decodes and validates a YAML configuration. Unset fields keep their
// defaults and unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	c := Default()

	d := yaml.NewDecoder(bytes.NewReader(data))
	d.KnownFields(true)

	err := d.Decode(c)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, zerr.Wrap(err, "failed to parse config file")
	}

	err = c.Validate()
	if err != nil {
		return nil, err
	}

	c.History = expand(c.History)

	return c, nil
}

// PromptFor formats the prompt for line n.
func (c *Config) PromptFor(n int) string {
	if strings.Contains(strings.ReplaceAll(c.Prompt, "%%", ""), "%d") {
		return fmt.Sprintf(c.Prompt, n)
	}

	return strings.ReplaceAll(c.Prompt, "%%", "%")
}

// Validate the configuration for basic semantic errors.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
	})

	err := validate.RegisterValidation("prompt", func(fl validator.FieldLevel) bool {
		s := strings.ReplaceAll(fl.Field().String(), "%%", "")
		n := strings.Count(s, "%d")

		return n <= 1 && strings.Count(s, "%") == n
	})
	if err != nil {
		return zerr.Wrap(err, "register prompt validation")
	}

	err = validate.Struct(c)
	if err != nil {
		return zerr.Wrap(ErrInvalid, err.Error())
	}

	return nil
}

func expand(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
