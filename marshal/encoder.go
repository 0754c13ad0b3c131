package marshal

import (
	"unicode/utf8"

	"go.uber.org/zap"

	sherpawasm "github.com/wippyai/sherpa-wasm"
	"github.com/wippyai/sherpa-wasm/errors"
	"github.com/wippyai/sherpa-wasm/layout"
)

// Block is the encoded form of one struct level.
type Block struct {
	Layout      *layout.Struct
	Children    []*Block
	Ptr         uint32 // struct buffer
	Size        uint32
	Strings     uint32 // string buffer, 0 for scalar-only levels
	StringsSize uint32
}

// Encoder writes Records into engine memory.
type Encoder struct {
	heap sherpawasm.Heap
	calc *layout.Calculator
}

func NewEncoder(heap sherpawasm.Heap) *Encoder {
	return &Encoder{heap: heap, calc: layout.NewCalculator()}
}

// Encode marshals rec and all nested records. On failure every buffer
// allocated during this call has already been freed.
func (e *Encoder) Encode(rec *Record) (*Graph, error) {
	if rec == nil || rec.Layout == nil {
		return nil, errors.InvalidInput(errors.PhaseEncode, nil, "nil record")
	}

	var allocs allocations
	root, err := e.encodeLevel(rec, []string{rec.Layout.Name}, &allocs)
	if err != nil {
		if ferr := allocs.free(e.heap); ferr != nil {
			Logger().Warn("rollback after failed encode",
				zap.Int("allocations", len(allocs)),
				zap.Error(ferr))
		}
		return nil, err
	}

	Logger().Debug("encoded config",
		zap.String("struct", rec.Layout.Name),
		zap.Uint32("ptr", root.Ptr),
		zap.Int("allocations", len(allocs)))

	return &Graph{heap: e.heap, root: root}, nil
}

func (e *Encoder) encodeLevel(rec *Record, path []string, allocs *allocations) (*Block, error) {
	l := rec.Layout
	for name := range rec.values {
		if _, ok := l.Field(name); !ok {
			return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
				Path(append(path, name)...).
				Detail("field not in %s", l.Name).
				Build()
		}
	}

	info := e.calc.Calculate(l)
	block := &Block{Layout: l, Size: info.Size}

	// Children first; their struct bytes are copied in below.
	children := make(map[string]*Block)
	for _, f := range l.Fields {
		if f.Kind != layout.KindStruct {
			continue
		}
		child := NewRecord(f.Struct)
		if v, ok := rec.values[f.Name]; ok {
			if v.kind != layout.KindStruct {
				return nil, errors.TypeMismatch(errors.PhaseEncode, append(path, f.Name), "struct", v.kind.String())
			}
			if v.rec == nil || v.rec.Layout != f.Struct {
				return nil, errors.TypeMismatch(errors.PhaseEncode, append(path, f.Name), f.Struct.Name, "foreign record")
			}
			child = v.rec
		}
		cb, err := e.encodeLevel(child, append(path, f.Name), allocs)
		if err != nil {
			return nil, err
		}
		children[f.Name] = cb
		block.Children = append(block.Children, cb)
	}

	// String sizes in ABI order, each including its NUL.
	strs := make(map[string][]byte, info.Strings)
	for _, f := range l.Fields {
		if f.Kind != layout.KindString {
			continue
		}
		var s string
		if v, ok := rec.values[f.Name]; ok {
			if v.kind != layout.KindString {
				return nil, errors.TypeMismatch(errors.PhaseEncode, append(path, f.Name), "string", v.kind.String())
			}
			s = v.str
		}
		if !utf8.ValidString(s) {
			return nil, errors.InvalidUTF8(errors.PhaseEncode, append(path, f.Name), []byte(s))
		}
		b := make([]byte, len(s)+1)
		copy(b, s)
		strs[f.Name] = b
		block.StringsSize += uint32(len(b))
	}

	if block.StringsSize > 0 {
		ptr, err := e.heap.Malloc(block.StringsSize)
		if err != nil || ptr == 0 {
			return nil, errors.New(errors.PhaseEncode, errors.KindAllocation).
				Path(path...).
				Detail("string buffer of %d bytes", block.StringsSize).
				Cause(err).
				Build()
		}
		allocs.add(ptr, block.StringsSize)
		block.Strings = ptr
	}

	ptr, err := e.heap.Malloc(block.Size)
	if err != nil || ptr == 0 {
		return nil, errors.New(errors.PhaseEncode, errors.KindAllocation).
			Path(path...).
			Detail("struct buffer of %d bytes", block.Size).
			Cause(err).
			Build()
	}
	allocs.add(ptr, block.Size)
	block.Ptr = ptr

	strOff := uint32(0)
	for _, f := range l.Fields {
		slot := ptr + info.FieldOffs[f.Name]
		switch f.Kind {
		case layout.KindString:
			b := strs[f.Name]
			if err := e.heap.Write(block.Strings+strOff, b); err != nil {
				return nil, errors.Wrap(errors.PhaseEncode, errors.KindOutOfBounds, err, f.Name)
			}
			if err := e.heap.WriteU32(slot, block.Strings+strOff); err != nil {
				return nil, errors.Wrap(errors.PhaseEncode, errors.KindOutOfBounds, err, f.Name)
			}
			strOff += uint32(len(b))
		case layout.KindI32, layout.KindF32:
			var bits uint32
			if v, ok := rec.values[f.Name]; ok {
				if v.kind != f.Kind {
					return nil, errors.TypeMismatch(errors.PhaseEncode, append(path, f.Name), f.Kind.String(), v.kind.String())
				}
				bits = v.num
			}
			if err := e.heap.WriteU32(slot, bits); err != nil {
				return nil, errors.Wrap(errors.PhaseEncode, errors.KindOutOfBounds, err, f.Name)
			}
		case layout.KindStruct:
			cb := children[f.Name]
			if err := e.heap.Copy(cb.Ptr, cb.Size, slot); err != nil {
				return nil, errors.Wrap(errors.PhaseEncode, errors.KindOutOfBounds, err, f.Name)
			}
		}
	}

	return block, nil
}
