package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Magic is the four-byte marker that opens every frame.
var Magic = [4]byte{'S', 'C', 'B', '1'}

// Version is the current wire protocol version. Any change to the payload
// byte output of an existing Request/Response variant must bump this.
const Version uint16 = 2

const headerLen = 4 + 2 + 4 // MAGIC + VERSION + LEN

// DefaultResyncMaxBytes is the client's default discard cap while scanning
// for Magic in a noisy shell stream.
const DefaultResyncMaxBytes = 8192

// WriteFrame writes MAGIC, VERSION, LEN, then payload to w. One frame per
// call; callers own connection lifecycle.
func WriteFrame(w io.Writer, payload []byte) error {
	var hdr [headerLen]byte
	copy(hdr[0:4], Magic[:])
	binary.LittleEndian.PutUint16(hdr[4:6], Version)
	binary.LittleEndian.PutUint32(hdr[6:10], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// ReadOptions controls ReadFrame's tolerance for leading noise.
type ReadOptions struct {
	// MaxSize bounds LEN; frames claiming more are rejected before any
	// payload allocation.
	MaxSize uint32
	// Resync enables scanning forward for Magic instead of treating a
	// mismatch as fatal. Only ever true on the client's read of the proxy's
	// stdout (§4.1); false on every server-side read.
	Resync bool
	// ResyncMaxBytes caps how many leading bytes may be discarded while
	// resyncing. Ignored when Resync is false.
	ResyncMaxBytes int
}

// ReadFrame reads one frame from r and returns its payload. Discarded holds
// the bytes skipped during a successful or failed resync scan, for
// diagnostics; it is nil when Resync is false.
func ReadFrame(r io.Reader, opts ReadOptions) (payload []byte, discarded []byte, err error) {
	if opts.Resync {
		discarded, err = syncToMagic(r, opts.ResyncMaxBytes)
		if err != nil {
			return nil, discarded, err
		}
	} else {
		var m [4]byte
		if _, err := io.ReadFull(r, m[:]); err != nil {
			return nil, nil, fmt.Errorf("read magic: %w", err)
		}
		if m != Magic {
			return nil, nil, newFrameErr(CodeInvalidRequest, "bad magic")
		}
	}

	var vb [2]byte
	if _, err := io.ReadFull(r, vb[:]); err != nil {
		return nil, discarded, fmt.Errorf("read version: %w", err)
	}
	version := binary.LittleEndian.Uint16(vb[:])
	if version != Version {
		return nil, discarded, newFrameErr(CodeVersionMismatch, fmt.Sprintf("got %d, want %d", version, Version))
	}

	var lb [4]byte
	if _, err := io.ReadFull(r, lb[:]); err != nil {
		return nil, discarded, fmt.Errorf("read length: %w", err)
	}
	length := binary.LittleEndian.Uint32(lb[:])
	if length > opts.MaxSize {
		return nil, discarded, newFrameErr(CodePayloadTooLarge, fmt.Sprintf("%d exceeds max %d", length, opts.MaxSize))
	}

	payload = make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, discarded, fmt.Errorf("read payload: %w", err)
		}
	}
	return payload, discarded, nil
}

// syncToMagic scans r one byte at a time, maintaining a sliding four-byte
// window, until the window equals Magic. It returns every byte discarded
// before the match. Exceeding maxDiscard bytes is a hard failure.
func syncToMagic(r io.Reader, maxDiscard int) ([]byte, error) {
	if maxDiscard <= 0 {
		maxDiscard = DefaultResyncMaxBytes
	}
	var window [4]byte
	filled := 0
	discarded := make([]byte, 0, 64)
	var one [1]byte

	for {
		if _, err := io.ReadFull(r, one[:]); err != nil {
			return discarded, fmt.Errorf("resync: %w", err)
		}
		if filled < 4 {
			window[filled] = one[0]
			filled++
			if filled == 4 && window == Magic {
				return discarded, nil
			}
			continue
		}
		// Window full but not yet matched: its first byte is committed to
		// the discard pile, the window slides in the new byte.
		discarded = append(discarded, window[0])
		if len(discarded) > maxDiscard {
			return discarded[:maxDiscard], newFrameErr(CodeInvalidRequest, fmt.Sprintf("no magic within %d bytes", maxDiscard))
		}
		window[0], window[1], window[2], window[3] = window[1], window[2], window[3], one[0]
		if window == Magic {
			return discarded, nil
		}
	}
}
