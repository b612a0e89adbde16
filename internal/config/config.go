// Package config defines the application configuration and loads it from
// YAML with environment overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/finance-calculators/pkg/constants"
	"github.com/iwvelando/finance-calculators/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for finance-calculators.
type Configuration struct {
	Logging     LoggingConfig     `yaml:"logging,omitempty"`
	Output      OutputConfig      `yaml:"output,omitempty"`
	Definitions DefinitionsConfig `yaml:"definitions,omitempty"`
	History     HistoryConfig     `yaml:"history,omitempty"`
	Server      ServerConfig      `yaml:"server,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format   string `yaml:"format,omitempty"`   // pretty, csv, json
	Language string `yaml:"language,omitempty"` // BCP 47 tag for number printing
}

// DefinitionsConfig lists the files and directories calculator definitions
// are loaded from.
type DefinitionsConfig struct {
	Paths []string `yaml:"paths,omitempty"`
}

// HistoryConfig configures the saved results list.
type HistoryConfig struct {
	File  string `yaml:"file,omitempty"`
	Limit int    `yaml:"limit,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address     string `yaml:"address,omitempty"`
	MaxBodySize string `yaml:"maxBodySize,omitempty"` // e.g. 256K, 1M
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("output.language", "en")
	v.SetDefault("definitions.paths", []string{constants.DefaultDefinitionsPath})
	v.SetDefault("history.file", constants.DefaultHistoryFile)
	v.SetDefault("history.limit", constants.DefaultHistoryLimit)
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxBodySize", "256K")

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path yields the defaults. Environment
// variables such as FINCALC_SERVER_ADDRESS override file values.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
	}

	var configuration Configuration
	err := v.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	validator := validation.ConfigValidator{
		DefinitionPaths: c.Definitions.Paths,
		HistoryFile:     c.History.File,
		HistoryLimit:    c.History.Limit,
		ServerAddress:   c.Server.Address,
		LogLevel:        c.Logging.Level,
		LogFormat:       c.Logging.Format,
	}
	warnings := validator.ValidateAll()

	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		warnings = append(warnings, err.Error())
	}
	return warnings
}
