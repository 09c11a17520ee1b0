// Package daemon implements the long-lived process that holds the single
// clipboard cell and serves one framed request per connection over a local
// Unix socket (spec §4.2).
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ssh-clipboard/internal/protocol"
)

// Config bounds the daemon's behavior; all fields have spec-mandated
// defaults applied by the caller before Run is invoked.
type Config struct {
	SocketPath string
	MaxSize    uint32
	IOTimeout  time.Duration
}

const (
	// DefaultMaxSize is §3's default clipboard size bound (10 MiB).
	DefaultMaxSize = 10 << 20
	// DefaultIOTimeout is §4.2's default per-connection I/O deadline.
	DefaultIOTimeout = 7 * time.Second
)

// Daemon owns the single clipboard cell and the socket listener — the only
// two pieces of global mutable state in the core (spec §9). Both are
// created in Run and torn down when it returns; there is no
// reinitialization mid-run. MaxSize and IOTimeout are also read on every
// accepted connection, so they're held as atomics rather than plain Config
// fields: UpdateLimits lets a config-reload module adjust them while Run is
// already accepting connections, without a lock on the hot path.
type Daemon struct {
	socketPath string
	ln         net.Listener
	cell       Cell

	maxSize   atomic.Uint32
	ioTimeout atomic.Int64 // time.Duration, nanoseconds
}

// New constructs a Daemon bound to an already-open listener. Callers obtain
// the listener via Listen (which does the directory/stale-socket dance) so
// tests can exercise Daemon against an in-memory listener if they choose.
func New(cfg Config, ln net.Listener) *Daemon {
	d := &Daemon{socketPath: cfg.SocketPath, ln: ln}
	d.maxSize.Store(cfg.MaxSize)
	d.ioTimeout.Store(int64(cfg.IOTimeout))
	return d
}

// UpdateLimits replaces MaxSize/IOTimeout in place. Safe to call
// concurrently with Run; the next connection (and no in-flight one) sees
// the new values, since handleConn reads them once at the top of a request
// rather than caching them across its lifetime.
func (d *Daemon) UpdateLimits(maxSize uint32, ioTimeout time.Duration) {
	d.maxSize.Store(maxSize)
	d.ioTimeout.Store(int64(ioTimeout))
}

// MaxSize returns the currently active size bound.
func (d *Daemon) MaxSize() uint32 { return d.maxSize.Load() }

// IOTimeout returns the currently active per-connection I/O deadline.
func (d *Daemon) IOTimeout() time.Duration { return time.Duration(d.ioTimeout.Load()) }

// Run accepts connections until ctx is cancelled or the listener fails.
// Each connection is handled in its own goroutine (spec §5: "one spawned
// task per accepted connection"); Run itself never blocks on a single
// connection's I/O.
func (d *Daemon) Run(ctx context.Context) error {
	slog.Info("daemon listening", "socket", d.socketPath)
	go func() {
		<-ctx.Done()
		d.ln.Close()
	}()

	for {
		conn, err := d.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				if errors.Is(err, net.ErrClosed) {
					return nil
				}
				slog.Error("accept failed", "err", err)
				continue
			}
		}
		go d.handleConn(conn)
	}
}

func (d *Daemon) handleConn(conn net.Conn) {
	connID := uuid.NewString()
	defer conn.Close()

	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		slog.Error("non-unix connection rejected", "conn", connID)
		return
	}
	if err := checkPeerUID(unixConn, os.Getuid()); err != nil {
		slog.Warn("peer credential check failed; closing with no response", "conn", connID, "err", err)
		return
	}

	// Read once per connection, not per field access, so a concurrent
	// UpdateLimits call can't apply half-old/half-new limits to one request.
	maxSize := d.maxSize.Load()
	ioTimeout := time.Duration(d.ioTimeout.Load())

	deadline := time.Now().Add(ioTimeout)
	if err := conn.SetDeadline(deadline); err != nil {
		slog.Error("set deadline", "conn", connID, "err", err)
		return
	}

	payload, _, err := protocol.ReadFrame(conn, protocol.ReadOptions{MaxSize: maxSize, Resync: false})
	if err != nil {
		slog.Debug("frame read failed; closing", "conn", connID, "err", err)
		return
	}
	req, err := protocol.UnmarshalRequest(payload)
	if err != nil {
		slog.Debug("request decode failed", "conn", connID, "err", err)
		d.writeResponse(conn, connID, protocol.ErrResponse(0, protocol.CodeInvalidRequest, err.Error()))
		return
	}

	slog.Debug("request", "conn", connID, "request_id", req.RequestID, "kind", req.Kind)
	resp := d.dispatch(req, maxSize)
	d.writeResponse(conn, connID, resp)
}

func (d *Daemon) dispatch(req protocol.Request, maxSize uint32) protocol.Response {
	switch req.Kind {
	case protocol.RequestSet:
		return d.handleSet(req, maxSize)
	case protocol.RequestGet:
		return d.handleGet(req)
	case protocol.RequestPeekMeta:
		return d.handlePeekMeta(req)
	default:
		return protocol.ErrResponse(req.RequestID, protocol.CodeInvalidRequest, "unknown request kind")
	}
}

func (d *Daemon) handleSet(req protocol.Request, maxSize uint32) protocol.Response {
	v := req.Value
	if v.ContentType != protocol.TextPlain && v.ContentType != protocol.ImagePNG {
		return protocol.ErrResponse(req.RequestID, protocol.CodeInvalidRequest, "unsupported content type: "+v.ContentType)
	}
	if uint32(len(v.Data)) > maxSize {
		return protocol.ErrResponse(req.RequestID, protocol.CodePayloadTooLarge, "value exceeds max size")
	}
	if v.ContentType == protocol.TextPlain && !validUTF8(v.Data) {
		return protocol.ErrResponse(req.RequestID, protocol.CodeInvalidUTF8, "text value is not valid UTF-8")
	}
	d.cell.Set(v)
	return protocol.OkResponse(req.RequestID)
}

func (d *Daemon) handleGet(req protocol.Request) protocol.Response {
	v, ok := d.cell.Get()
	if !ok {
		return protocol.Response{RequestID: req.RequestID, Kind: protocol.ResponseEmpty}
	}
	return protocol.Response{RequestID: req.RequestID, Kind: protocol.ResponseValue, Value: v}
}

func (d *Daemon) handlePeekMeta(req protocol.Request) protocol.Response {
	m, ok := d.cell.PeekMeta()
	if !ok {
		return protocol.Response{RequestID: req.RequestID, Kind: protocol.ResponseEmpty}
	}
	return protocol.Response{RequestID: req.RequestID, Kind: protocol.ResponseMeta, Meta: m}
}

func (d *Daemon) writeResponse(conn net.Conn, connID string, resp protocol.Response) {
	if err := protocol.WriteFrame(conn, protocol.MarshalResponse(resp)); err != nil {
		slog.Debug("response write failed", "conn", connID, "err", err)
	}
}
