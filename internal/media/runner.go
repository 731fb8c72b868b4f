// Package media builds and drives the ffmpeg invocations behind segment
// composition, watermark overlay, and export. Command construction is pure
// and separately testable; only the Runner touches the process table.
package media

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/memorio/memorio/internal/errors"
)

// Runner executes an external tool and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

// Run executes the command, mapping a missing binary to DEVICE_UNAVAILABLE
// and a non-zero exit to an error carrying the tool output.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, errors.NewDeviceUnavailable(fmt.Sprintf("%s not found on PATH", name), err)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s failed: %w, output: %s", name, err, output)
	}
	return output, nil
}
