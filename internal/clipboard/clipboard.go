// Package clipboard defines the Adapter contract the core treats as an
// external collaborator (spec §6), plus a default implementation backed by
// the local desktop clipboard.
package clipboard

import "errors"

// Adapter reads and writes one clipboard value at a time. Implementations
// are not required to be safe for concurrent use; the client only ever
// calls one of Read/Write per invocation.
type Adapter interface {
	// Read returns the current clipboard contents and its content type.
	// ErrUnavailable signals the adapter has no usable backend on this
	// platform (headless session, no X11/Wayland, etc.) rather than "the
	// clipboard is empty" — callers should fall back to another sink.
	Read() (contentType string, data []byte, err error)
	// Write places data on the clipboard under the given content type.
	Write(contentType string, data []byte) error
}

// ErrUnavailable is returned by an Adapter when no clipboard backend could
// be reached at all, distinct from a successful read of empty content.
var ErrUnavailable = errors.New("clipboard: no backend available")

// ErrUnsupportedContentType is returned by Write when the adapter cannot
// represent the given content type (e.g. an OS clipboard API that only
// moves text being asked to carry image/png).
var ErrUnsupportedContentType = errors.New("clipboard: unsupported content type for this adapter")
