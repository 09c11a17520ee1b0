// Package transport spawns the external ssh(1) binary and drives exactly
// one framed request/response exchange through its stdio pipes (spec §4.4).
// The client never implements the SSH protocol itself.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"ssh-clipboard/internal/protocol"

	"ssh-clipboard/internal/cli/client/target"
)

// Config describes one SSH invocation.
type Config struct {
	SSHBin         string // explicit --ssh-bin, else PATH lookup of "ssh"
	Target         target.Target
	Port           uint16 // 0 means target.Port or "let ssh decide"
	IdentityFile   string
	Options        []string // repeatable -o values, in order
	RemoteCommand  string   // default "ssh_clipboard proxy"
	Timeout        time.Duration
	MaxResponse    uint32
	ResyncMaxBytes int
	StrictFrames   bool // disables resync on the client read
}

// Result carries everything the caller needs to classify the outcome per
// §4.4/§7: the framed response when one arrived, and the raw materials to
// fall back on when it didn't.
type Result struct {
	Response   *protocol.Response
	ExitCode   int // the ssh(1) child's own exit code
	Stderr     []byte
	FrameErr   error // non-nil if no valid response frame arrived
	TimedOut   bool
}

const defaultRemoteCommand = "ssh_clipboard proxy"

// Run spawns ssh(1), writes the marshaled request frame to its stdin, and
// reads one response frame from its stdout with resync enabled by default
// (spec §4.4's "read exactly one response frame with resync enabled").
func Run(ctx context.Context, cfg Config, req protocol.Request) (Result, error) {
	bin := cfg.SSHBin
	if bin == "" {
		var err error
		bin, err = exec.LookPath("ssh")
		if err != nil {
			return Result{}, fmt.Errorf("locate ssh binary: %w", err)
		}
	}

	argv := buildArgs(cfg)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 7 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, bin, argv...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Result{}, fmt.Errorf("attach stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("attach stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start ssh: %w", err)
	}

	writeErrCh := make(chan error, 1)
	go func() {
		writeErrCh <- func() error {
			if err := protocol.WriteFrame(stdin, protocol.MarshalRequest(req)); err != nil {
				return err
			}
			return stdin.Close()
		}()
	}()

	readOpts := protocol.ReadOptions{
		MaxSize:        cfg.MaxResponse,
		Resync:         !cfg.StrictFrames,
		ResyncMaxBytes: cfg.ResyncMaxBytes,
	}
	payload, _, readErr := protocol.ReadFrame(stdout, readOpts)

	// A write-side error (e.g. the remote closed stdin early after it had
	// already replied) is intentionally not surfaced here: a framed
	// response that did arrive is authoritative per §7, and readErr below
	// already covers the case where nothing usable came back.
	<-writeErrCh
	waitErr := cmd.Wait()

	result := Result{Stderr: stderr.Bytes()}
	if exitErr, ok := asExitError(waitErr); ok {
		result.ExitCode = exitErr.ExitCode()
	}
	if runCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
	}

	if readErr != nil {
		result.FrameErr = readErr
		return result, nil
	}

	resp, err := protocol.UnmarshalResponse(payload)
	if err != nil {
		result.FrameErr = err
		return result, nil
	}
	result.Response = &resp
	return result, nil
}

func buildArgs(cfg Config) []string {
	args := []string{"-T"}
	port := cfg.Port
	if port == 0 {
		port = cfg.Target.Port
	}
	if port != 0 {
		args = append(args, "-p", fmt.Sprintf("%d", port))
	}
	if cfg.IdentityFile != "" {
		args = append(args, "-i", cfg.IdentityFile)
	}
	for _, o := range cfg.Options {
		args = append(args, "-o", o)
	}
	args = append(args, cfg.Target.String())
	remoteCmd := cfg.RemoteCommand
	if remoteCmd == "" {
		remoteCmd = defaultRemoteCommand
	}
	args = append(args, remoteCmd)
	return args
}

func asExitError(err error) (*exec.ExitError, bool) {
	exitErr, ok := err.(*exec.ExitError)
	return exitErr, ok
}
