package utils

import (
	"fmt"
	"os/exec"
	"runtime"
)

// OpenFolder opens the given directory in the platform file explorer.
func OpenFolder(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("explorer", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open folder %s: %w", path, err)
	}
	return nil
}
