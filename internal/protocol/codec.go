package protocol

import (
	"encoding/binary"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// The payload codec is hand-rolled, not protobuf: field order and presence
// are fixed by the Request/Response tag, not by field numbers. Only the
// variable-length integer encoding (string/blob length prefixes and the
// variant tag byte) borrows protowire's varint, per §4.1's requirement for
// "variable-length integer encoding for counts and enum tags". Fixed-width
// fields (request_id, size, created_at) are little-endian via
// encoding/binary, also per §4.1.

func appendString(b []byte, s string) []byte {
	b = protowire.AppendVarint(b, uint64(len(s)))
	return append(b, s...)
}

func appendBytes(b []byte, data []byte) []byte {
	b = protowire.AppendVarint(b, uint64(len(data)))
	return append(b, data...)
}

func appendU64LE(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendI64LE(b []byte, v int64) []byte {
	return appendU64LE(b, uint64(v))
}

func appendValue(b []byte, v Value) []byte {
	b = appendString(b, v.ContentType)
	b = appendBytes(b, v.Data)
	b = appendI64LE(b, v.CreatedAt)
	return b
}

// cursor reads sequential fields off a byte slice, tracking consumption so
// callers can report "short payload" precisely instead of panicking on a
// truncated frame.
type cursor struct {
	b   []byte
	off int
}

func (c *cursor) remaining() []byte { return c.b[c.off:] }

func (c *cursor) varint() (uint64, error) {
	v, n := protowire.ConsumeVarint(c.remaining())
	if n < 0 {
		return 0, fmt.Errorf("truncated varint at offset %d", c.off)
	}
	c.off += n
	return v, nil
}

func (c *cursor) string() (string, error) {
	n, err := c.varint()
	if err != nil {
		return "", err
	}
	if uint64(len(c.remaining())) < n {
		return "", fmt.Errorf("truncated string: want %d, have %d", n, len(c.remaining()))
	}
	s := string(c.remaining()[:n])
	c.off += int(n)
	return s, nil
}

func (c *cursor) bytes() ([]byte, error) {
	n, err := c.varint()
	if err != nil {
		return nil, err
	}
	if uint64(len(c.remaining())) < n {
		return nil, fmt.Errorf("truncated bytes: want %d, have %d", n, len(c.remaining()))
	}
	// Copy out: the underlying payload buffer may be reused/pooled by the
	// frame reader in a future revision, so the Value must not alias it.
	out := make([]byte, n)
	copy(out, c.remaining()[:n])
	c.off += int(n)
	return out, nil
}

func (c *cursor) u64LE() (uint64, error) {
	if len(c.remaining()) < 8 {
		return 0, fmt.Errorf("truncated u64 at offset %d", c.off)
	}
	v := binary.LittleEndian.Uint64(c.remaining()[:8])
	c.off += 8
	return v, nil
}

func (c *cursor) i64LE() (int64, error) {
	v, err := c.u64LE()
	return int64(v), err
}

func (c *cursor) value() (Value, error) {
	ct, err := c.string()
	if err != nil {
		return Value{}, err
	}
	data, err := c.bytes()
	if err != nil {
		return Value{}, err
	}
	createdAt, err := c.i64LE()
	if err != nil {
		return Value{}, err
	}
	return Value{ContentType: ct, Data: data, CreatedAt: createdAt}, nil
}

// MarshalRequest produces the stable binary payload for req. This shape is
// locked by the golden fixtures in testdata/: changing byte output for an
// existing variant requires a protocol VERSION bump.
func MarshalRequest(req Request) []byte {
	b := protowire.AppendVarint(nil, uint64(req.Kind))
	b = appendU64LE(b, req.RequestID)
	if req.Kind == RequestSet {
		b = appendValue(b, req.Value)
	}
	return b
}

// UnmarshalRequest decodes a payload produced by MarshalRequest.
func UnmarshalRequest(payload []byte) (Request, error) {
	c := &cursor{b: payload}
	kind, err := c.varint()
	if err != nil {
		return Request{}, newFrameErr(CodeInvalidRequest, "malformed request tag")
	}
	requestID, err := c.u64LE()
	if err != nil {
		return Request{}, newFrameErr(CodeInvalidRequest, "malformed request id")
	}
	req := Request{RequestID: requestID, Kind: RequestKind(kind)}
	switch req.Kind {
	case RequestSet:
		v, err := c.value()
		if err != nil {
			return Request{}, newFrameErr(CodeInvalidRequest, "malformed set value")
		}
		req.Value = v
	case RequestGet, RequestPeekMeta:
		// no body
	default:
		return Request{}, newFrameErr(CodeInvalidRequest, fmt.Sprintf("unknown request kind %d", kind))
	}
	return req, nil
}

// MarshalResponse produces the stable binary payload for resp.
func MarshalResponse(resp Response) []byte {
	b := protowire.AppendVarint(nil, uint64(resp.Kind))
	b = appendU64LE(b, resp.RequestID)
	switch resp.Kind {
	case ResponseValue:
		b = appendValue(b, resp.Value)
	case ResponseMeta:
		b = appendString(b, resp.Meta.ContentType)
		b = appendU64LE(b, resp.Meta.Size)
		b = appendI64LE(b, resp.Meta.CreatedAt)
	case ResponseError:
		b = appendString(b, string(resp.Error.Code))
		b = appendString(b, resp.Error.Message)
	case ResponseOk, ResponseEmpty:
		// no body
	}
	return b
}

// UnmarshalResponse decodes a payload produced by MarshalResponse.
func UnmarshalResponse(payload []byte) (Response, error) {
	c := &cursor{b: payload}
	kind, err := c.varint()
	if err != nil {
		return Response{}, newFrameErr(CodeInvalidRequest, "malformed response tag")
	}
	requestID, err := c.u64LE()
	if err != nil {
		return Response{}, newFrameErr(CodeInvalidRequest, "malformed response id")
	}
	resp := Response{RequestID: requestID, Kind: ResponseKind(kind)}
	switch resp.Kind {
	case ResponseValue:
		v, err := c.value()
		if err != nil {
			return Response{}, newFrameErr(CodeInvalidRequest, "malformed value response")
		}
		resp.Value = v
	case ResponseMeta:
		ct, err := c.string()
		if err != nil {
			return Response{}, newFrameErr(CodeInvalidRequest, "malformed meta response")
		}
		size, err := c.u64LE()
		if err != nil {
			return Response{}, newFrameErr(CodeInvalidRequest, "malformed meta size")
		}
		createdAt, err := c.i64LE()
		if err != nil {
			return Response{}, newFrameErr(CodeInvalidRequest, "malformed meta created_at")
		}
		resp.Meta = Meta{ContentType: ct, Size: size, CreatedAt: createdAt}
	case ResponseError:
		code, err := c.string()
		if err != nil {
			return Response{}, newFrameErr(CodeInvalidRequest, "malformed error code")
		}
		msg, err := c.string()
		if err != nil {
			return Response{}, newFrameErr(CodeInvalidRequest, "malformed error message")
		}
		resp.Error = ErrorPayload{Code: ErrorCode(code), Message: msg}
	case ResponseOk, ResponseEmpty:
		// no body
	default:
		return Response{}, newFrameErr(CodeInvalidRequest, fmt.Sprintf("unknown response kind %d", kind))
	}
	return resp, nil
}
