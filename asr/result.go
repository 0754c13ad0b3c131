package asr

import (
	"context"
	"encoding/json"
	"fmt"

	sherpawasm "github.com/wippyai/sherpa-wasm"
	"github.com/wippyai/sherpa-wasm/errors"
)

// Result is a decoded recognition result. Text is always present; every
// other field the engine reports is kept in Fields as decoded JSON.
type Result struct {
	Fields map[string]any
	Text   string
}

// Tokens returns the "tokens" field when present.
func (r Result) Tokens() []string {
	raw, _ := r.Fields["tokens"].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Timestamps returns the "timestamps" field when present.
func (r Result) Timestamps() []float64 {
	raw, _ := r.Fields["timestamps"].([]any)
	out := make([]float64, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(float64); ok {
			out = append(out, f)
		}
	}
	return out
}

// ParseResult decodes a result JSON payload. An empty payload is an empty
// result, not an error.
func ParseResult(entry, raw string) (Result, error) {
	res := Result{Fields: map[string]any{}}
	if raw == "" {
		return res, nil
	}
	if err := json.Unmarshal([]byte(raw), &res.Fields); err != nil {
		return Result{}, errors.InvalidJSON(entry, raw, err)
	}
	if res.Fields == nil {
		return Result{}, errors.InvalidJSON(entry, raw, fmt.Errorf("payload is not an object"))
	}
	switch text := res.Fields["text"].(type) {
	case nil:
	case string:
		res.Text = text
	default:
		return Result{}, errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
			Path("text").
			Entry(entry).
			Detail("text is %T, want string", text).
			Build()
	}
	return res, nil
}

const cstringChunk = 256

// ReadCString reads the NUL-terminated string at ptr.
func ReadCString(mem sherpawasm.Memory, ptr uint32) (string, error) {
	var buf []byte
	for off := ptr; ; {
		chunk, err := mem.Read(off, cstringChunk)
		if err != nil {
			// Near the end of memory; finish byte by byte.
			for {
				b, berr := mem.ReadU8(off)
				if berr != nil {
					return "", errors.Wrap(errors.PhaseDecode, errors.KindOutOfBounds, berr, "unterminated string")
				}
				if b == 0 {
					return string(buf), nil
				}
				buf = append(buf, b)
				off++
			}
		}
		for i, b := range chunk {
			if b == 0 {
				return string(append(buf, chunk[:i]...)), nil
			}
		}
		buf = append(buf, chunk...)
		off += cstringChunk
	}
}

// DecodeResult reads and parses the result string at ptr, then hands the
// string back through destroy on every path.
func DecodeResult(ctx context.Context, mem sherpawasm.Memory, ptr uint32, entry string, destroy func(context.Context, uint32) error) (res Result, err error) {
	if ptr == 0 {
		return Result{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Entry(entry).
			Detail("null result pointer").
			Build()
	}
	defer func() {
		if derr := destroy(ctx, ptr); derr != nil && err == nil {
			err = derr
		}
	}()

	raw, err := ReadCString(mem, ptr)
	if err != nil {
		return Result{}, err
	}
	return ParseResult(entry, raw)
}
