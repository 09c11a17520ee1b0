package proxy

import (
	"bytes"
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"ssh-clipboard/internal/protocol"
)

// fakeDaemon accepts exactly one connection, reads one frame, and replies
// with a pre-set response — enough to exercise the proxy's forwarding path
// without pulling in the real daemon package.
func fakeDaemon(t *testing.T, sockPath string, reply protocol.Response) {
	t.Helper()
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		defer ln.Close()
		if _, _, err := protocol.ReadFrame(conn, protocol.ReadOptions{MaxSize: 1 << 20}); err != nil {
			return
		}
		protocol.WriteFrame(conn, protocol.MarshalResponse(reply))
	}()
}

func TestRunForwardsRequestAndRelaysOkResponse(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "daemon.sock")
	fakeDaemon(t, sockPath, protocol.OkResponse(7))

	reqFrame := new(bytes.Buffer)
	protocol.WriteFrame(reqFrame, protocol.MarshalRequest(protocol.Request{RequestID: 7, Kind: protocol.RequestGet}))

	var out bytes.Buffer
	code := Run(context.Background(), Config{SocketPath: sockPath, MaxSize: 1 << 20, IOTimeout: time.Second}, reqFrame, &out)

	if code != protocol.ExitOK {
		t.Fatalf("exit code = %d, want 0", code)
	}
	payload, _, err := protocol.ReadFrame(&out, protocol.ReadOptions{MaxSize: 1 << 20})
	if err != nil {
		t.Fatalf("decode relayed frame: %v", err)
	}
	resp, err := protocol.UnmarshalResponse(payload)
	if err != nil || resp.Kind != protocol.ResponseOk || resp.RequestID != 7 {
		t.Fatalf("got %+v, err=%v", resp, err)
	}
}

func TestRunMapsErrorResponseToItsExitCode(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "daemon.sock")
	fakeDaemon(t, sockPath, protocol.ErrResponse(1, protocol.CodePayloadTooLarge, "too big"))

	reqFrame := new(bytes.Buffer)
	protocol.WriteFrame(reqFrame, protocol.MarshalRequest(protocol.Request{RequestID: 1, Kind: protocol.RequestGet}))

	var out bytes.Buffer
	code := Run(context.Background(), Config{SocketPath: sockPath, MaxSize: 1 << 20, IOTimeout: time.Second}, reqFrame, &out)
	if code != protocol.ExitPayloadTooLarge {
		t.Fatalf("exit code = %d, want %d", code, protocol.ExitPayloadTooLarge)
	}
}

func TestRunExitsDaemonNotRunningWithoutAutostart(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "nonexistent.sock")

	reqFrame := new(bytes.Buffer)
	protocol.WriteFrame(reqFrame, protocol.MarshalRequest(protocol.Request{RequestID: 1, Kind: protocol.RequestGet}))

	var out bytes.Buffer
	code := Run(context.Background(), Config{SocketPath: sockPath, MaxSize: 1 << 20, IOTimeout: time.Second}, reqFrame, &out)
	if code != protocol.ExitDaemonNotRunning {
		t.Fatalf("exit code = %d, want %d", code, protocol.ExitDaemonNotRunning)
	}

	payload, _, err := protocol.ReadFrame(&out, protocol.ReadOptions{MaxSize: 1 << 20})
	if err != nil {
		t.Fatalf("decode error frame: %v", err)
	}
	resp, err := protocol.UnmarshalResponse(payload)
	if err != nil || resp.Kind != protocol.ResponseError || resp.Error.Code != protocol.CodeDaemonNotRunning {
		t.Fatalf("got %+v, err=%v", resp, err)
	}
}

func TestRunRejectsMalformedRequestFrame(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "daemon.sock")
	fakeDaemon(t, sockPath, protocol.OkResponse(1))

	garbage := bytes.NewBufferString("not a frame at all")
	var out bytes.Buffer
	code := Run(context.Background(), Config{SocketPath: sockPath, MaxSize: 1 << 20, IOTimeout: time.Second}, garbage, &out)
	if code != protocol.ExitInvalidRequest {
		t.Fatalf("exit code = %d, want %d", code, protocol.ExitInvalidRequest)
	}
}
