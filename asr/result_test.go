package asr

import (
	"context"
	"errors"
	"strings"
	"testing"

	sherrors "github.com/wippyai/sherpa-wasm/errors"
	"github.com/wippyai/sherpa-wasm/internal/heaptest"
)

func TestParseResult(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantText string
		wantKind sherrors.Kind
	}{
		{name: "empty payload", raw: ""},
		{name: "text only", raw: `{"text":"hello world"}`, wantText: "hello world"},
		{name: "no text", raw: `{"tokens":[]}`},
		{name: "malformed", raw: `{"text":`, wantKind: sherrors.KindInvalidJSON},
		{name: "not an object", raw: `null`, wantKind: sherrors.KindInvalidJSON},
		{name: "array", raw: `[1,2]`, wantKind: sherrors.KindInvalidJSON},
		{name: "text not string", raw: `{"text":5}`, wantKind: sherrors.KindTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ParseResult("entry", tt.raw)
			if tt.wantKind != "" {
				var se *sherrors.Error
				if !errors.As(err, &se) || se.Kind != tt.wantKind {
					t.Fatalf("err = %v, want kind %s", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseResult: %v", err)
			}
			if res.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", res.Text, tt.wantText)
			}
		})
	}
}

func TestParseResult_KeepsRawOnError(t *testing.T) {
	_, err := ParseResult("SherpaOnnxGetOnlineStreamResultAsJson", "{bad")
	var se *sherrors.Error
	if !errors.As(err, &se) {
		t.Fatalf("err = %v", err)
	}
	if se.Value != "{bad" {
		t.Errorf("Value = %v, want raw payload", se.Value)
	}
	if se.Entry != "SherpaOnnxGetOnlineStreamResultAsJson" {
		t.Errorf("Entry = %q", se.Entry)
	}
}

func TestResult_TokensAndTimestamps(t *testing.T) {
	res, err := ParseResult("e", `{"text":"a b","tokens":["a"," b"],"timestamps":[0.0,0.4],"is_final":true}`)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Tokens(); len(got) != 2 || got[1] != " b" {
		t.Errorf("Tokens = %q", got)
	}
	if got := res.Timestamps(); len(got) != 2 || got[1] != 0.4 {
		t.Errorf("Timestamps = %v", got)
	}
	if res.Fields["is_final"] != true {
		t.Errorf("is_final = %v", res.Fields["is_final"])
	}
}

func TestReadCString(t *testing.T) {
	tests := []struct {
		name string
		s    string
	}{
		{"empty", ""},
		{"short", "hello"},
		{"chunk boundary", strings.Repeat("x", cstringChunk)},
		{"multi chunk", strings.Repeat("日本語", 200)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			heap := heaptest.New(1 << 16)
			ptr := heap.PutCString(tt.s)
			got, err := ReadCString(heap, ptr)
			if err != nil {
				t.Fatalf("ReadCString: %v", err)
			}
			if got != tt.s {
				t.Errorf("got %d bytes, want %d", len(got), len(tt.s))
			}
		})
	}
}

func TestReadCString_NearEndOfMemory(t *testing.T) {
	heap := heaptest.New(1100)
	// 1024 is the first allocation; 76 bytes remain, less than one chunk.
	ptr := heap.PutCString("tail")
	got, err := ReadCString(heap, ptr)
	if err != nil || got != "tail" {
		t.Fatalf("got %q, %v", got, err)
	}

	full := make([]byte, 1100-int(ptr))
	for i := range full {
		full[i] = 'z'
	}
	_ = heap.Write(ptr, full)
	if _, err := ReadCString(heap, ptr); !errors.Is(err, &sherrors.Error{Phase: sherrors.PhaseDecode, Kind: sherrors.KindOutOfBounds}) {
		t.Errorf("unterminated err = %v", err)
	}
}

func TestDecodeResult(t *testing.T) {
	ctx := context.Background()

	t.Run("destroys on success", func(t *testing.T) {
		heap := heaptest.New(4096)
		ptr := heap.PutCString(`{"text":"ok"}`)
		var destroyed []uint32
		res, err := DecodeResult(ctx, heap, ptr, "e", func(_ context.Context, p uint32) error {
			destroyed = append(destroyed, p)
			return heap.Free(p)
		})
		if err != nil || res.Text != "ok" {
			t.Fatalf("res = %+v, err = %v", res, err)
		}
		if len(destroyed) != 1 || destroyed[0] != ptr {
			t.Errorf("destroyed = %v", destroyed)
		}
	})

	t.Run("destroys on parse failure", func(t *testing.T) {
		heap := heaptest.New(4096)
		ptr := heap.PutCString(`{oops`)
		calls := 0
		_, err := DecodeResult(ctx, heap, ptr, "e", func(_ context.Context, p uint32) error {
			calls++
			return heap.Free(p)
		})
		if !errors.Is(err, &sherrors.Error{Phase: sherrors.PhaseDecode, Kind: sherrors.KindInvalidJSON}) {
			t.Errorf("err = %v", err)
		}
		if calls != 1 || heap.Live() != 0 {
			t.Errorf("calls = %d, live = %d", calls, heap.Live())
		}
	})

	t.Run("null pointer", func(t *testing.T) {
		heap := heaptest.New(4096)
		called := false
		_, err := DecodeResult(ctx, heap, 0, "e", func(context.Context, uint32) error {
			called = true
			return nil
		})
		if !errors.Is(err, &sherrors.Error{Phase: sherrors.PhaseDecode, Kind: sherrors.KindInvalidData}) {
			t.Errorf("err = %v", err)
		}
		if called {
			t.Error("destroy called for null pointer")
		}
	})

	t.Run("destroy error surfaces", func(t *testing.T) {
		heap := heaptest.New(4096)
		ptr := heap.PutCString(`{"text":"x"}`)
		boom := errors.New("boom")
		_, err := DecodeResult(ctx, heap, ptr, "e", func(context.Context, uint32) error { return boom })
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want boom", err)
		}
	})
}
