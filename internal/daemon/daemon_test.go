package daemon

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"ssh-clipboard/internal/protocol"
)

func TestCellNeverSetIsEmpty(t *testing.T) {
	var c Cell
	if _, ok := c.Get(); ok {
		t.Fatal("expected Get to report unset cell")
	}
	if _, ok := c.PeekMeta(); ok {
		t.Fatal("expected PeekMeta to report unset cell")
	}
}

func TestCellSetThenGetReturnsValueUntilNextSet(t *testing.T) {
	var c Cell
	v1 := protocol.Value{ContentType: protocol.TextPlain, Data: []byte("hello"), CreatedAt: 1}
	c.Set(v1)

	got, ok := c.Get()
	if !ok || !bytes.Equal(got.Data, v1.Data) || got.ContentType != v1.ContentType {
		t.Fatalf("got %+v, ok=%v", got, ok)
	}

	meta, ok := c.PeekMeta()
	if !ok || meta.Size != uint64(len(v1.Data)) || meta.ContentType != v1.ContentType {
		t.Fatalf("meta mismatch: %+v", meta)
	}

	v2 := protocol.Value{ContentType: protocol.TextPlain, Data: []byte("world!"), CreatedAt: 2}
	c.Set(v2)
	got2, _ := c.Get()
	if !bytes.Equal(got2.Data, v2.Data) {
		t.Fatalf("expected overwrite to take effect, got %q", got2.Data)
	}
}

func TestCellSetCopiesBytes(t *testing.T) {
	var c Cell
	data := []byte("mutate me")
	c.Set(protocol.Value{ContentType: protocol.TextPlain, Data: data, CreatedAt: 1})
	data[0] = 'X'
	got, _ := c.Get()
	if got.Data[0] == 'X' {
		t.Fatal("Cell.Set must copy, not alias, caller's slice")
	}
}

const testMaxSize = 1024

func newTestDaemon() *Daemon {
	return New(Config{MaxSize: testMaxSize, IOTimeout: time.Second}, nil)
}

func TestDispatchSetRejectsUnknownContentType(t *testing.T) {
	d := newTestDaemon()
	resp := d.dispatch(protocol.Request{RequestID: 1, Kind: protocol.RequestSet, Value: protocol.Value{ContentType: "application/json", Data: []byte("{}")}}, testMaxSize)
	if resp.Kind != protocol.ResponseError || resp.Error.Code != protocol.CodeInvalidRequest {
		t.Fatalf("got %+v", resp)
	}
}

func TestDispatchSetRejectsOversizePayload(t *testing.T) {
	d := newTestDaemon()
	big := bytes.Repeat([]byte{'a'}, testMaxSize+1)
	resp := d.dispatch(protocol.Request{RequestID: 1, Kind: protocol.RequestSet, Value: protocol.Value{ContentType: protocol.TextPlain, Data: big}}, testMaxSize)
	if resp.Kind != protocol.ResponseError || resp.Error.Code != protocol.CodePayloadTooLarge {
		t.Fatalf("got %+v", resp)
	}
}

func TestDispatchSetAcceptsExactlyMaxSize(t *testing.T) {
	d := newTestDaemon()
	exact := bytes.Repeat([]byte{'a'}, testMaxSize)
	resp := d.dispatch(protocol.Request{RequestID: 1, Kind: protocol.RequestSet, Value: protocol.Value{ContentType: protocol.TextPlain, Data: exact}}, testMaxSize)
	if resp.Kind != protocol.ResponseOk {
		t.Fatalf("got %+v, want Ok", resp)
	}
}

func TestDispatchSetRejectsInvalidUTF8(t *testing.T) {
	d := newTestDaemon()
	resp := d.dispatch(protocol.Request{RequestID: 1, Kind: protocol.RequestSet, Value: protocol.Value{ContentType: protocol.TextPlain, Data: []byte{0xC3, 0x28}}}, testMaxSize)
	if resp.Kind != protocol.ResponseError || resp.Error.Code != protocol.CodeInvalidUTF8 {
		t.Fatalf("got %+v", resp)
	}
}

func TestDispatchGetEmptyThenAfterSet(t *testing.T) {
	d := newTestDaemon()
	resp := d.dispatch(protocol.Request{RequestID: 1, Kind: protocol.RequestGet}, testMaxSize)
	if resp.Kind != protocol.ResponseEmpty {
		t.Fatalf("got %+v, want Empty", resp)
	}

	d.dispatch(protocol.Request{RequestID: 2, Kind: protocol.RequestSet, Value: protocol.Value{ContentType: protocol.TextPlain, Data: []byte("hi")}}, testMaxSize)

	resp2 := d.dispatch(protocol.Request{RequestID: 3, Kind: protocol.RequestGet}, testMaxSize)
	if resp2.Kind != protocol.ResponseValue || string(resp2.Value.Data) != "hi" {
		t.Fatalf("got %+v", resp2)
	}
}

func TestUpdateLimitsAppliesToNextConnection(t *testing.T) {
	d := newTestDaemon()
	d.UpdateLimits(2048, 3*time.Second)
	if got := d.maxSize.Load(); got != 2048 {
		t.Fatalf("maxSize = %d, want 2048", got)
	}
	if got := time.Duration(d.ioTimeout.Load()); got != 3*time.Second {
		t.Fatalf("ioTimeout = %v, want 3s", got)
	}
}

func TestResolveSocketPathFallbackOrder(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	t.Setenv("TMPDIR", "/tmp/custom")
	if got := ResolveSocketPath(""); got != "/run/user/1000/ssh_clipboard/daemon.sock" {
		t.Fatalf("got %s", got)
	}
	if got := ResolveSocketPath("/explicit/path.sock"); got != "/explicit/path.sock" {
		t.Fatalf("explicit override not honored: %s", got)
	}

	t.Setenv("XDG_RUNTIME_DIR", "")
	got := ResolveSocketPath("")
	want := "/tmp/custom/ssh_clipboard-" + strconv.Itoa(os.Getuid()) + "/daemon.sock"
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestListenRoundTripSetGet(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "sub", "daemon.sock")

	ln, err := Listen(sockPath)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	info, err := os.Stat(sockPath)
	if err != nil {
		t.Fatalf("stat socket: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("socket mode = %o, want 0600", info.Mode().Perm())
	}

	d := New(Config{MaxSize: DefaultMaxSize, IOTimeout: 2 * time.Second}, ln)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	send := func(req protocol.Request) protocol.Response {
		conn, err := net.Dial("unix", sockPath)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.Close()
		if err := protocol.WriteFrame(conn, protocol.MarshalRequest(req)); err != nil {
			t.Fatalf("write request: %v", err)
		}
		payload, _, err := protocol.ReadFrame(conn, protocol.ReadOptions{MaxSize: DefaultMaxSize})
		if err != nil {
			t.Fatalf("read response: %v", err)
		}
		resp, err := protocol.UnmarshalResponse(payload)
		if err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return resp
	}

	getResp := send(protocol.Request{RequestID: 1, Kind: protocol.RequestGet})
	if getResp.Kind != protocol.ResponseEmpty {
		t.Fatalf("expected Empty before any Set, got %+v", getResp)
	}

	setResp := send(protocol.Request{
		RequestID: 2,
		Kind:      protocol.RequestSet,
		Value:     protocol.Value{ContentType: protocol.TextPlain, Data: []byte("hello"), CreatedAt: 42},
	})
	if setResp.Kind != protocol.ResponseOk || setResp.RequestID != 2 {
		t.Fatalf("got %+v", setResp)
	}

	getResp2 := send(protocol.Request{RequestID: 3, Kind: protocol.RequestGet})
	if getResp2.Kind != protocol.ResponseValue || string(getResp2.Value.Data) != "hello" {
		t.Fatalf("got %+v", getResp2)
	}

	metaResp := send(protocol.Request{RequestID: 4, Kind: protocol.RequestPeekMeta})
	if metaResp.Kind != protocol.ResponseMeta || metaResp.Meta.Size != 5 {
		t.Fatalf("got %+v", metaResp)
	}
}

func TestReclaimStaleSocketUnlinksDeadSocket(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "sub", "daemon.sock")

	ln, err := Listen(sockPath)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	// Simulate a crashed daemon: keep the socket file on Close (a clean
	// Close would unlink it), so the file remains and nothing listens.
	ln.(*net.UnixListener).SetUnlinkOnClose(false)
	ln.Close()

	ln2, err := Listen(sockPath)
	if err != nil {
		t.Fatalf("second Listen should reclaim the stale socket: %v", err)
	}
	ln2.Close()
}

func TestListenRefusesWhenDaemonAlreadyLive(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "sub", "daemon.sock")

	ln, err := Listen(sockPath)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	if _, err := Listen(sockPath); err == nil {
		t.Fatal("expected second Listen to fail while first daemon is live")
	}
}
