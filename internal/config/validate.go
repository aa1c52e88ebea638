package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports configuration values that cannot be used at runtime.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir is required")
	}
	switch c.Storage.Backend {
	case "file", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("storage.backend: unsupported value %q (expected file or sqlite)", c.Storage.Backend))
	}
	switch c.Logging.Format {
	case "", "text", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format: unsupported value %q", c.Logging.Format))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}
