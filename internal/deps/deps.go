// Package deps reports the availability of the external tools murmur shells
// out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"murmur/internal/config"
)

// Requirement defines an external dependency murmur relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the external binaries for the configured setup. ffmpeg
// serves both microphone capture and server-side audio normalization.
func Requirements(cfg *config.Config) []Requirement {
	binary := "ffmpeg"
	if cfg != nil {
		binary = cfg.FFmpegBinary()
	}
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     binary,
			Description: "Records from the microphone and converts audio for transcription",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the subset of statuses for unavailable required
// dependencies.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Optional && !status.Available {
			missing = append(missing, status)
		}
	}
	return missing
}
