package protocol

import (
	"bytes"
	"testing"
)

func TestRequestRoundTrip(t *testing.T) {
	cases := []Request{
		{RequestID: 1, Kind: RequestGet},
		{RequestID: 2, Kind: RequestPeekMeta},
		{
			RequestID: 42,
			Kind:      RequestSet,
			Value: Value{
				ContentType: TextPlain,
				Data:        []byte("hello"),
				CreatedAt:   1234567890123,
			},
		},
		{
			RequestID: 7,
			Kind:      RequestSet,
			Value:     Value{ContentType: ImagePNG, Data: []byte{}, CreatedAt: 0},
		},
	}
	for _, want := range cases {
		payload := MarshalRequest(want)
		got, err := UnmarshalRequest(payload)
		if err != nil {
			t.Fatalf("UnmarshalRequest: %v", err)
		}
		if got.RequestID != want.RequestID || got.Kind != want.Kind {
			t.Fatalf("got %+v, want %+v", got, want)
		}
		if want.Kind == RequestSet {
			if got.Value.ContentType != want.Value.ContentType ||
				!bytes.Equal(got.Value.Data, want.Value.Data) ||
				got.Value.CreatedAt != want.Value.CreatedAt {
				t.Fatalf("value mismatch: got %+v, want %+v", got.Value, want.Value)
			}
		}
	}
}

func TestResponseRoundTrip(t *testing.T) {
	cases := []Response{
		{RequestID: 1, Kind: ResponseOk},
		{RequestID: 2, Kind: ResponseEmpty},
		{
			RequestID: 3,
			Kind:      ResponseValue,
			Value:     Value{ContentType: TextPlain, Data: []byte("abc"), CreatedAt: 99},
		},
		{
			RequestID: 4,
			Kind:      ResponseMeta,
			Meta:      Meta{ContentType: ImagePNG, Size: 1024, CreatedAt: 55},
		},
		{
			RequestID: 5,
			Kind:      ResponseError,
			Error:     ErrorPayload{Code: CodePayloadTooLarge, Message: "too big"},
		},
	}
	for _, want := range cases {
		payload := MarshalResponse(want)
		got, err := UnmarshalResponse(payload)
		if err != nil {
			t.Fatalf("UnmarshalResponse: %v", err)
		}
		if got.RequestID != want.RequestID || got.Kind != want.Kind {
			t.Fatalf("got %+v, want %+v", got, want)
		}
		switch want.Kind {
		case ResponseValue:
			if got.Value.ContentType != want.Value.ContentType || !bytes.Equal(got.Value.Data, want.Value.Data) || got.Value.CreatedAt != want.Value.CreatedAt {
				t.Fatalf("value mismatch: got %+v, want %+v", got.Value, want.Value)
			}
		case ResponseMeta:
			if got.Meta != want.Meta {
				t.Fatalf("meta mismatch: got %+v, want %+v", got.Meta, want.Meta)
			}
		case ResponseError:
			if got.Error != want.Error {
				t.Fatalf("error mismatch: got %+v, want %+v", got.Error, want.Error)
			}
		}
	}
}

func TestUnmarshalRequestTruncated(t *testing.T) {
	full := MarshalRequest(Request{RequestID: 1, Kind: RequestSet, Value: Value{ContentType: TextPlain, Data: []byte("x"), CreatedAt: 1}})
	for n := 0; n < len(full); n++ {
		if _, err := UnmarshalRequest(full[:n]); err == nil {
			t.Fatalf("expected error decoding truncated payload of length %d", n)
		}
	}
}

func TestUnmarshalResponseUnknownKind(t *testing.T) {
	b := append([]byte{99}, make([]byte, 8)...)
	if _, err := UnmarshalResponse(b); err == nil {
		t.Fatal("expected error for unknown response kind")
	}
}
