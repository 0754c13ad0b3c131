package marshal

import (
	"errors"
	"testing"

	sherrors "github.com/wippyai/sherpa-wasm/errors"
	"github.com/wippyai/sherpa-wasm/internal/heaptest"
	"github.com/wippyai/sherpa-wasm/layout"
)

func TestEncode_StructSizeIsSlotsTimesFour(t *testing.T) {
	tests := []struct {
		s    *layout.Struct
		name string
	}{
		{layout.FeatureConfig, "feature"},
		{layout.OnlineModelConfig, "online model"},
		{layout.OnlineRecognizerConfig, "online recognizer"},
		{layout.OfflineRecognizerConfig, "offline recognizer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			heap := heaptest.New(1 << 16)
			g, err := NewEncoder(heap).Encode(NewRecord(tt.s))
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			want := uint32(tt.s.Slots()) * 4
			if g.Root().Size != want {
				t.Errorf("Size = %d, want %d", g.Root().Size, want)
			}
			if n, _ := heap.SizeOf(g.Ptr()); n != want {
				t.Errorf("allocated %d bytes, want %d", n, want)
			}
		})
	}
}

func TestEncode_StringSlots(t *testing.T) {
	heap := heaptest.New(4096)
	rec := NewRecord(layout.OnlineTransducerModelConfig).
		Set("encoder", String("a.onnx")).
		Set("decoder", String("bb")).
		Set("joiner", String(""))

	g, err := NewEncoder(heap).Encode(rec)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	root := g.Root()
	if root.StringsSize != 7+3+1 {
		t.Fatalf("StringsSize = %d, want 11", root.StringsSize)
	}

	tests := []struct {
		want string
		slot uint32
		off  uint32
	}{
		{"a.onnx", 0, 0},
		{"bb", 4, 7},
		{"", 8, 10},
	}
	for _, tt := range tests {
		ptr, _ := heap.ReadU32(root.Ptr + tt.slot)
		if ptr != root.Strings+tt.off {
			t.Errorf("slot %d = %d, want base+%d", tt.slot, ptr, tt.off)
		}
		if got := heap.CString(ptr); got != tt.want {
			t.Errorf("slot %d string = %q, want %q", tt.slot, got, tt.want)
		}
		nul, _ := heap.ReadU8(ptr + uint32(len(tt.want)))
		if nul != 0 {
			t.Errorf("slot %d missing NUL", tt.slot)
		}
	}
}

func TestEncode_MultibyteLength(t *testing.T) {
	heap := heaptest.New(4096)
	rec := NewRecord(layout.OnlineParaformerModelConfig).
		Set("encoder", String("模型")).
		Set("decoder", String("x"))

	g, err := NewEncoder(heap).Encode(rec)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// 6 UTF-8 bytes + NUL, then "x" + NUL
	if g.Root().StringsSize != 9 {
		t.Errorf("StringsSize = %d, want 9", g.Root().StringsSize)
	}
	ptr, _ := heap.ReadU32(g.Ptr() + 4)
	if ptr != g.Root().Strings+7 {
		t.Errorf("decoder slot offset = %d, want 7", ptr-g.Root().Strings)
	}
}

func TestEncode_ScalarsAndNested(t *testing.T) {
	heap := heaptest.New(1 << 16)
	feat := NewRecord(layout.FeatureConfig).
		Set("sampleRate", Int(16000)).
		Set("featureDim", Int(80))
	model := NewRecord(layout.OnlineModelConfig).
		Set("transducer", Nested(NewRecord(layout.OnlineTransducerModelConfig).Set("encoder", String("enc.onnx")))).
		Set("tokens", String("tokens.txt")).
		Set("numThreads", Int(2))
	rec := NewRecord(layout.OnlineRecognizerConfig).
		Set("featConfig", Nested(feat)).
		Set("modelConfig", Nested(model)).
		Set("rule1MinTrailingSilence", Float(2.4))

	g, err := NewEncoder(heap).Encode(rec)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	info := layout.Of(layout.OnlineRecognizerConfig)
	modelInfo := layout.Of(layout.OnlineModelConfig)
	root := g.Ptr()

	if v, _ := heap.ReadU32(root); v != 16000 {
		t.Errorf("sampleRate = %d", v)
	}
	if v, _ := heap.ReadU32(root + 4); v != 80 {
		t.Errorf("featureDim = %d", v)
	}

	modelBase := root + info.FieldOffs["modelConfig"]
	encPtr, _ := heap.ReadU32(modelBase)
	if got := heap.CString(encPtr); got != "enc.onnx" {
		t.Errorf("nested encoder = %q", got)
	}
	tokPtr, _ := heap.ReadU32(modelBase + modelInfo.FieldOffs["tokens"])
	if got := heap.CString(tokPtr); got != "tokens.txt" {
		t.Errorf("tokens = %q", got)
	}
	if v, _ := heap.ReadU32(modelBase + modelInfo.FieldOffs["numThreads"]); v != 2 {
		t.Errorf("numThreads = %d", v)
	}
	if f, _ := heap.ReadF32(root + info.FieldOffs["rule1MinTrailingSilence"]); f != 2.4 {
		t.Errorf("rule1 = %v", f)
	}

	// Omitted strings still point at an empty NUL-terminated string.
	dm, _ := heap.ReadU32(root + info.FieldOffs["decodingMethod"])
	if dm == 0 || heap.CString(dm) != "" {
		t.Errorf("decodingMethod slot = %d", dm)
	}
}

func TestEncode_ScalarOnlyLevelHasNoStringBuffer(t *testing.T) {
	heap := heaptest.New(4096)
	g, err := NewEncoder(heap).Encode(NewRecord(layout.FeatureConfig).Set("sampleRate", Int(8000)))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if g.Root().Strings != 0 {
		t.Error("scalar-only level allocated a string buffer")
	}
	if len(heap.Mall) != 1 {
		t.Errorf("allocations = %d, want 1", len(heap.Mall))
	}
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		rec  *Record
		name string
		kind sherrors.Kind
	}{
		{
			name: "unknown field",
			rec:  NewRecord(layout.FeatureConfig).Set("bogus", Int(1)),
			kind: sherrors.KindInvalidInput,
		},
		{
			name: "string in int slot",
			rec:  NewRecord(layout.FeatureConfig).Set("sampleRate", String("16000")),
			kind: sherrors.KindTypeMismatch,
		},
		{
			name: "float in int slot",
			rec:  NewRecord(layout.FeatureConfig).Set("featureDim", Float(80)),
			kind: sherrors.KindTypeMismatch,
		},
		{
			name: "foreign nested record",
			rec:  NewRecord(layout.OnlineRecognizerConfig).Set("featConfig", Nested(NewRecord(layout.OnlineToneCtcModelConfig))),
			kind: sherrors.KindTypeMismatch,
		},
		{
			name: "invalid utf-8",
			rec:  NewRecord(layout.OnlineToneCtcModelConfig).Set("model", String("\xff\xfe")),
			kind: sherrors.KindInvalidUTF8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			heap := heaptest.New(1 << 16)
			_, err := NewEncoder(heap).Encode(tt.rec)
			if !errors.Is(err, &sherrors.Error{Phase: sherrors.PhaseEncode, Kind: tt.kind}) {
				t.Fatalf("err = %v, want kind %s", err, tt.kind)
			}
			if heap.Live() != 0 {
				t.Errorf("%d allocations leaked", heap.Live())
			}
		})
	}
}

func TestEncode_AllocationFailureRollsBack(t *testing.T) {
	for failAfter := 1; failAfter < 6; failAfter++ {
		heap := heaptest.New(1 << 16)
		heap.FailAfter = failAfter

		_, err := NewEncoder(heap).Encode(NewRecord(layout.OnlineRecognizerConfig))
		if !errors.Is(err, &sherrors.Error{Phase: sherrors.PhaseEncode, Kind: sherrors.KindAllocation}) {
			t.Fatalf("failAfter=%d: err = %v", failAfter, err)
		}
		if heap.Live() != 0 {
			t.Errorf("failAfter=%d: %d allocations leaked", failAfter, heap.Live())
		}
	}
}
