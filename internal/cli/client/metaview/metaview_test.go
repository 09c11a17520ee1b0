package metaview

import (
	"testing"
	"time"

	"ssh-clipboard/internal/protocol"
)

func TestFromMetaCopiesFields(t *testing.T) {
	m := protocol.Meta{ContentType: protocol.TextPlain, Size: 42, CreatedAt: 1700000000000}
	card := FromMeta(m)
	if card.ContentType != protocol.TextPlain || card.Size != 42 || card.CreatedAt != 1700000000000 {
		t.Fatalf("got %+v", card)
	}
}

func TestMsToTime(t *testing.T) {
	got := msToTime(1700000000000)
	want := time.UnixMilli(1700000000000)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
