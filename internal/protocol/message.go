// Package protocol implements the SCB1 wire protocol: frame codec, the
// Request/Response message model, and their stable binary serialization.
package protocol

const (
	// TextPlain is the only accepted text content type.
	TextPlain = "text/plain; charset=utf-8"
	// ImagePNG is the only accepted binary content type.
	ImagePNG = "image/png"
)

// Value is the single clipboard payload: a content type, its bytes, and the
// sender's creation timestamp in milliseconds since the Unix epoch, UTC.
type Value struct {
	ContentType string
	Data        []byte
	CreatedAt   int64
}

// RequestKind tags the Request variant.
type RequestKind uint8

const (
	RequestSet RequestKind = iota
	RequestGet
	RequestPeekMeta
)

// Request is a tagged union: Set carries a Value, Get and PeekMeta carry
// nothing beyond the request id.
type Request struct {
	RequestID uint64
	Kind      RequestKind
	Value     Value // only meaningful when Kind == RequestSet
}

// ResponseKind tags the Response variant.
type ResponseKind uint8

const (
	ResponseOk ResponseKind = iota
	ResponseValue
	ResponseMeta
	ResponseEmpty
	ResponseError
)

// Meta is the metadata-only reply to PeekMeta.
type Meta struct {
	ContentType string
	Size        uint64
	CreatedAt   int64
}

// ErrorPayload is the body of an Error response.
type ErrorPayload struct {
	Code    ErrorCode
	Message string
}

// Response is a tagged union whose RequestID echoes the originating
// Request's RequestID unchanged.
type Response struct {
	RequestID uint64
	Kind      ResponseKind
	Value     Value        // only meaningful when Kind == ResponseValue
	Meta      Meta         // only meaningful when Kind == ResponseMeta
	Error     ErrorPayload // only meaningful when Kind == ResponseError
}

// OkResponse builds an acknowledgement for a Set request.
func OkResponse(requestID uint64) Response {
	return Response{RequestID: requestID, Kind: ResponseOk}
}

// ErrResponse builds an Error response for the given request id.
func ErrResponse(requestID uint64, code ErrorCode, message string) Response {
	return Response{
		RequestID: requestID,
		Kind:      ResponseError,
		Error:     ErrorPayload{Code: code, Message: message},
	}
}
