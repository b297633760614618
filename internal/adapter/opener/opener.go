// Package opener hands files to the desktop environment's default
// application.
package opener

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"docfind/internal/port"
)

var _ port.Opener = (*SystemOpener)(nil)

// SystemOpener shells out to the platform's open command.
type SystemOpener struct{}

func New() *SystemOpener {
	return &SystemOpener{}
}

func (o *SystemOpener) Open(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot open %s: %w", path, err)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	// the viewer keeps running; don't wait on it
	go cmd.Wait()
	return nil
}
