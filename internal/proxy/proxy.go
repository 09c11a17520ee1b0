// Package proxy implements the SSH-entrypoint one-shot bridge (spec §4.3):
// invoked remotely as `ssh_clipboard proxy`, it relays exactly one request
// frame from stdin to the daemon socket and exactly one response frame back
// to stdout, never inspecting payload bytes.
package proxy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"ssh-clipboard/internal/protocol"
)

// Config carries the flags proxy.Run needs; SocketPath is resolved by the
// caller via daemon.ResolveSocketPath before construction.
type Config struct {
	SocketPath      string
	MaxSize         uint32
	IOTimeout       time.Duration
	AutostartDaemon bool
	// DaemonBin is the executable to spawn when autostarting. Empty means
	// "re-exec the currently running binary" (see autostart.go).
	DaemonBin string
}

const (
	autostartAttempts = 5
	autostartInterval = 200 * time.Millisecond
)

// Run implements §4.3 steps 1-5 and returns the process exit code the
// caller's main() should use.
func Run(ctx context.Context, cfg Config, stdin io.Reader, stdout io.Writer) int {
	conn, err := dialDaemon(ctx, cfg)
	if err != nil {
		slog.Debug("daemon unreachable", "socket", cfg.SocketPath, "err", err)
		writeOrLog(stdout, protocol.ErrResponse(0, protocol.CodeDaemonNotRunning,
			fmt.Sprintf("daemon not running at %s: %v", cfg.SocketPath, err)))
		return protocol.ExitDaemonNotRunning
	}
	defer conn.Close()

	// Step 2: resync is off on this read — the client side of the pipe is
	// trusted to have written a clean frame.
	reqPayload, _, err := protocol.ReadFrame(stdin, protocol.ReadOptions{MaxSize: cfg.MaxSize, Resync: false})
	if err != nil {
		writeOrLog(stdout, protocol.ErrResponse(0, protocol.CodeInvalidRequest, err.Error()))
		return protocol.ExitInvalidRequest
	}

	if cfg.IOTimeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(cfg.IOTimeout)); err != nil {
			slog.Warn("set deadline on daemon connection", "err", err)
		}
	}

	// Step 3: forward the frame unchanged. The proxy never decodes the
	// request payload, only re-frames the bytes it already validated above.
	if err := protocol.WriteFrame(conn, reqPayload); err != nil {
		writeOrLog(stdout, protocol.ErrResponse(0, protocol.CodeDaemonNotRunning,
			fmt.Sprintf("writing to daemon: %v", err)))
		return protocol.ExitDaemonNotRunning
	}

	// Step 4.
	respPayload, _, err := protocol.ReadFrame(conn, protocol.ReadOptions{MaxSize: cfg.MaxSize, Resync: false})
	if err != nil {
		writeOrLog(stdout, protocol.ErrResponse(0, protocol.CodeDaemonNotRunning,
			fmt.Sprintf("reading from daemon: %v", err)))
		return protocol.ExitDaemonNotRunning
	}

	// Step 5: forward unchanged.
	if err := protocol.WriteFrame(stdout, respPayload); err != nil {
		slog.Error("writing response to stdout", "err", err)
		return protocol.ExitInvalidRequest
	}

	resp, err := protocol.UnmarshalResponse(respPayload)
	if err != nil {
		// Already flushed the raw bytes above; the exit code is best-effort
		// once the frame itself fails to parse on our own side.
		return protocol.ExitInvalidRequest
	}
	return exitCodeForResponse(resp)
}

func exitCodeForResponse(resp protocol.Response) int {
	switch resp.Kind {
	case protocol.ResponseError:
		return protocol.ExitCode(resp.Error.Code)
	case protocol.ResponseEmpty:
		// Not an error frame, but nothing for the caller to act on either;
		// mirrors the client's own pull-against-empty exit code (§8 scenario 2).
		return protocol.ExitInvalidRequest
	default:
		return protocol.ExitOK
	}
}

func writeOrLog(w io.Writer, resp protocol.Response) {
	if err := protocol.WriteFrame(w, protocol.MarshalResponse(resp)); err != nil {
		slog.Error("writing error response to stdout", "err", err)
	}
}

// dialDaemon opens the daemon socket, autostarting a detached daemon and
// retrying with bounded backoff when cfg.AutostartDaemon is set (§4.3 step 1).
func dialDaemon(ctx context.Context, cfg Config) (net.Conn, error) {
	conn, err := net.Dial("unix", cfg.SocketPath)
	if err == nil {
		return conn, nil
	}
	if !cfg.AutostartDaemon {
		return nil, err
	}

	if spawnErr := spawnDetachedDaemon(cfg); spawnErr != nil {
		return nil, fmt.Errorf("dial failed (%w) and autostart failed: %v", err, spawnErr)
	}

	var lastErr error = err
	for i := 0; i < autostartAttempts; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(autostartInterval):
		}
		conn, lastErr = net.Dial("unix", cfg.SocketPath)
		if lastErr == nil {
			return conn, nil
		}
	}
	return nil, fmt.Errorf("daemon did not come up after autostart: %w", lastErr)
}
