//go:build linux

package proxy

import (
	"os/exec"
	"syscall"
)

// detach puts the daemon in its own session so it survives the proxy
// process exiting (and, transitively, the SSH session that invoked it).
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
