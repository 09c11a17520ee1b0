package clipboard

import (
	"fmt"

	"github.com/atotto/clipboard"

	"ssh-clipboard/internal/protocol"
)

// Desktop is the default Adapter, backed by the OS clipboard via
// atotto/clipboard. atotto/clipboard only moves text (it shells out to
// xclip/xsel/pbcopy/pbpaste/clip.exe under the hood, none of which carry a
// content-type tag), so Write rejects image/png outright rather than
// silently mangling binary data into a text clipboard slot: callers route
// images through --output/--base64 instead (spec §6).
type Desktop struct{}

var _ Adapter = Desktop{}

func (Desktop) Read() (string, []byte, error) {
	if !clipboard.Unsupported {
		text, err := clipboard.ReadAll()
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return protocol.TextPlain, []byte(text), nil
	}
	return "", nil, ErrUnavailable
}

func (Desktop) Write(contentType string, data []byte) error {
	if contentType != protocol.TextPlain {
		return ErrUnsupportedContentType
	}
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	if err := clipboard.WriteAll(string(data)); err != nil {
		return fmt.Errorf("write desktop clipboard: %w", err)
	}
	return nil
}
