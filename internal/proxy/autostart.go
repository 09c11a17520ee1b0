package proxy

import (
	"fmt"
	"os"
	"os/exec"
)

// spawnDetachedDaemon launches `<bin> daemon --socket-path <path>` as a
// detached background process and returns once it has started, without
// waiting for it to become ready — dialDaemon's retry loop handles that.
func spawnDetachedDaemon(cfg Config) error {
	bin := cfg.DaemonBin
	if bin == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locate own executable for autostart: %w", err)
		}
		bin = exe
	}

	cmd := exec.Command(bin, "daemon", "--socket-path", cfg.SocketPath)
	cmd.Stdin = nil
	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", os.DevNull, err)
	}
	cmd.Stdout = devnull
	cmd.Stderr = devnull
	detach(cmd)

	if err := cmd.Start(); err != nil {
		devnull.Close()
		return fmt.Errorf("start daemon: %w", err)
	}
	// The child is now session-leader-detached; closing our copy of the fd
	// and releasing the process handle lets it run independently of the
	// proxy's own (very short) lifetime.
	devnull.Close()
	return cmd.Process.Release()
}
