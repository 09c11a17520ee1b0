//go:build !linux

package proxy

import "os/exec"

// detach is a no-op outside Linux; proxy and daemon are Linux-only per spec.
func detach(cmd *exec.Cmd) {}
