package validation

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

// ValidateDefinitionPath reports a warning when a configured definitions
// path does not exist. Missing paths are skipped by the loader.
func ValidateDefinitionPath(path string) string {
	if strings.TrimSpace(path) == "" {
		return "Empty definitions path is ignored"
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("Definitions path '%s' does not exist and will be skipped", path)
		}
		return fmt.Sprintf("Definitions path '%s' is not accessible: %v", path, err)
	}
	return ""
}

// ValidateHistory checks the saved results settings.
func ValidateHistory(file string, limit int) []string {
	var warnings []string
	if strings.TrimSpace(file) == "" {
		warnings = append(warnings, "History file is empty; saved results are disabled")
	} else if info, err := os.Stat(filepath.Dir(file)); err == nil && !info.IsDir() {
		warnings = append(warnings, fmt.Sprintf("History file '%s' is inside a non-directory", file))
	}
	if limit < 0 {
		warnings = append(warnings, fmt.Sprintf("History limit %d is negative; the default is used", limit))
	}
	return warnings
}

// ValidateServerAddress checks that addr is a host:port pair.
func ValidateServerAddress(addr string) string {
	if addr == "" {
		return ""
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Sprintf("Server address '%s' is not a valid host:port: %v", addr, err)
	}
	return ""
}

// ConfigValidator collects the application settings that are validated
// together.
type ConfigValidator struct {
	DefinitionPaths []string
	HistoryFile     string
	HistoryLimit    int
	ServerAddress   string
	LogLevel        string
	LogFormat       string
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	if len(cv.DefinitionPaths) == 0 {
		warnings = append(warnings, "No definitions paths configured")
	}
	for _, path := range cv.DefinitionPaths {
		if warning := ValidateDefinitionPath(path); warning != "" {
			warnings = append(warnings, warning)
		}
	}

	warnings = append(warnings, ValidateHistory(cv.HistoryFile, cv.HistoryLimit)...)

	if warning := ValidateServerAddress(cv.ServerAddress); warning != "" {
		warnings = append(warnings, warning)
	}

	if err := ValidateLogLevel(cv.LogLevel); err != nil {
		warnings = append(warnings, err.Error())
	}
	if err := ValidateLogFormat(cv.LogFormat); err != nil {
		warnings = append(warnings, err.Error())
	}

	return warnings
}
