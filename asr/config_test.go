package asr

import (
	"testing"

	"github.com/wippyai/sherpa-wasm/internal/heaptest"
	"github.com/wippyai/sherpa-wasm/layout"
	"github.com/wippyai/sherpa-wasm/marshal"
)

// offset returns the byte offset of a field path inside s.
func offset(t *testing.T, s *layout.Struct, path ...string) uint32 {
	t.Helper()
	var off uint32
	for i, name := range path {
		f, ok := s.Field(name)
		if !ok {
			t.Fatalf("%s has no field %q", s.Name, name)
		}
		off += layout.Of(s).FieldOffs[name]
		if i < len(path)-1 {
			s = f.Struct
		}
	}
	return off
}

type encoded struct {
	t    *testing.T
	heap *heaptest.Heap
	s    *layout.Struct
	ptr  uint32
}

func encode(t *testing.T, s *layout.Struct, rec *marshal.Record) encoded {
	t.Helper()
	heap := heaptest.New(1 << 18)
	g, err := marshal.NewEncoder(heap).Encode(rec)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	t.Cleanup(func() { _ = g.Release() })
	return encoded{t: t, heap: heap, s: s, ptr: g.Ptr()}
}

func (e encoded) i32(path ...string) int32 {
	v, err := e.heap.ReadU32(e.ptr + offset(e.t, e.s, path...))
	if err != nil {
		e.t.Fatalf("read %v: %v", path, err)
	}
	return int32(v)
}

func (e encoded) f32(path ...string) float32 {
	v, err := e.heap.ReadF32(e.ptr + offset(e.t, e.s, path...))
	if err != nil {
		e.t.Fatalf("read %v: %v", path, err)
	}
	return v
}

func (e encoded) str(path ...string) string {
	p, err := e.heap.ReadU32(e.ptr + offset(e.t, e.s, path...))
	if err != nil {
		e.t.Fatalf("read %v: %v", path, err)
	}
	return e.heap.CString(p)
}

func ptrTo[T any](v T) *T { return &v }

func TestOnlineRecognizerConfig_Defaults(t *testing.T) {
	cfg := OnlineRecognizerConfig{
		Model: OnlineModelConfig{
			Family: &OnlineTransducer{Encoder: "enc.onnx", Decoder: "dec.onnx", Joiner: "join.onnx"},
			Tokens: "tokens.txt",
		},
	}
	e := encode(t, layout.OnlineRecognizerConfig, cfg.Record())

	ints := []struct {
		path []string
		want int32
	}{
		{[]string{"featConfig", "sampleRate"}, 16000},
		{[]string{"featConfig", "featureDim"}, 80},
		{[]string{"modelConfig", "numThreads"}, 1},
		{[]string{"modelConfig", "debug"}, 1},
		{[]string{"modelConfig", "tokensBufSize"}, 0},
		{[]string{"maxActivePaths"}, 4},
		{[]string{"enableEndpoint"}, 0},
		{[]string{"ctcFstDecoderConfig", "maxActive"}, 3000},
		{[]string{"hotwordsBufSize"}, 0},
	}
	for _, tt := range ints {
		if got := e.i32(tt.path...); got != tt.want {
			t.Errorf("%v = %d, want %d", tt.path, got, tt.want)
		}
	}

	floats := []struct {
		path []string
		want float32
	}{
		{[]string{"rule1MinTrailingSilence"}, 2.4},
		{[]string{"rule2MinTrailingSilence"}, 1.2},
		{[]string{"rule3MinUtteranceLength"}, 20},
		{[]string{"hotwordsScore"}, 1.5},
		{[]string{"blankPenalty"}, 0},
	}
	for _, tt := range floats {
		if got := e.f32(tt.path...); got != tt.want {
			t.Errorf("%v = %v, want %v", tt.path, got, tt.want)
		}
	}

	strs := []struct {
		path []string
		want string
	}{
		{[]string{"decodingMethod"}, "greedy_search"},
		{[]string{"modelConfig", "provider"}, "cpu"},
		{[]string{"modelConfig", "tokens"}, "tokens.txt"},
		{[]string{"modelConfig", "transducer", "encoder"}, "enc.onnx"},
		{[]string{"modelConfig", "transducer", "joiner"}, "join.onnx"},
		{[]string{"modelConfig", "paraformer", "encoder"}, ""},
		{[]string{"modelConfig", "toneCtc", "model"}, ""},
		{[]string{"hr", "dictDir"}, ""},
		{[]string{"ctcFstDecoderConfig", "graph"}, ""},
	}
	for _, tt := range strs {
		if got := e.str(tt.path...); got != tt.want {
			t.Errorf("%v = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestOnlineRecognizerConfig_ExplicitValues(t *testing.T) {
	cfg := OnlineRecognizerConfig{
		Feat: FeatureConfig{SampleRate: 8000, FeatureDim: 40},
		Model: OnlineModelConfig{
			Family:     &OnlineZipformer2Ctc{Model: "ctc.onnx"},
			Debug:      ptrTo(false),
			NumThreads: 4,
			Provider:   "wasm",
			TokensBuf:  "a 0\nb 1\n",
		},
		CtcFstDecoder:   CtcFstDecoderConfig{Graph: "H.fst", MaxActive: 10},
		DecodingMethod:  "modified_beam_search",
		MaxActivePaths:  8,
		EnableEndpoint:  true,
		HotwordsBuf:     "HELLO",
		HotwordsBufSize: 3,
		BlankPenalty:    0.5,
		HomophoneReplacer: HomophoneReplacerConfig{
			Lexicon:  "lexicon.txt",
			RuleFsts: "hr.fst",
		},
	}
	e := encode(t, layout.OnlineRecognizerConfig, cfg.Record())

	if got := e.i32("featConfig", "sampleRate"); got != 8000 {
		t.Errorf("sampleRate = %d", got)
	}
	if got := e.i32("modelConfig", "debug"); got != 0 {
		t.Errorf("debug = %d, want 0 for explicit false", got)
	}
	if got := e.i32("modelConfig", "numThreads"); got != 4 {
		t.Errorf("numThreads = %d", got)
	}
	if got := e.i32("modelConfig", "tokensBufSize"); got != 0 {
		t.Errorf("tokensBufSize = %d, want 0 when unset", got)
	}
	if got := e.str("modelConfig", "tokensBuf"); got != "a 0\nb 1\n" {
		t.Errorf("tokensBuf = %q", got)
	}
	if got := e.i32("hotwordsBufSize"); got != 3 {
		t.Errorf("hotwordsBufSize = %d, want explicit 3", got)
	}
	if got := e.i32("enableEndpoint"); got != 1 {
		t.Errorf("enableEndpoint = %d", got)
	}
	if got := e.str("modelConfig", "zipformer2Ctc", "model"); got != "ctc.onnx" {
		t.Errorf("zipformer2Ctc.model = %q", got)
	}
	if got := e.str("hr", "lexicon"); got != "lexicon.txt" {
		t.Errorf("hr.lexicon = %q", got)
	}
	if got := e.str("hr", "dictDir"); got != "" {
		t.Errorf("hr.dictDir = %q, always empty", got)
	}
	if got := e.f32("blankPenalty"); got != 0.5 {
		t.Errorf("blankPenalty = %v", got)
	}
}

func TestOfflineRecognizerConfig_Defaults(t *testing.T) {
	tests := []struct {
		family      OfflineModel
		name        string
		wantTail    int32
		wantPnc     int32
		wantTele    string
		wantWhisper string
	}{
		{name: "no family", wantTail: -1, wantPnc: 1},
		{name: "sense voice", family: &OfflineSenseVoice{Model: "sv.onnx"}, wantTail: -1, wantPnc: 1},
		{name: "whisper default padding", family: &OfflineWhisper{Encoder: "e", Decoder: "d"}, wantTail: 2000, wantPnc: 1, wantWhisper: "e"},
		{name: "whisper explicit padding", family: &OfflineWhisper{Encoder: "e", TailPaddings: 500}, wantTail: 500, wantPnc: 1, wantWhisper: "e"},
		{name: "telespeech", family: &OfflineTeleSpeechCtc{Model: "tele.onnx"}, wantTail: -1, wantPnc: 1, wantTele: "tele.onnx"},
		{name: "canary default pnc", family: &OfflineCanary{Encoder: "ce"}, wantTail: -1, wantPnc: 1},
		{name: "canary pnc off", family: &OfflineCanary{Encoder: "ce", UsePnc: ptrTo(false)}, wantTail: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := OfflineRecognizerConfig{Model: OfflineModelConfig{Family: tt.family, Tokens: "t.txt"}}
			e := encode(t, layout.OfflineRecognizerConfig, cfg.Record())

			if got := e.i32("modelConfig", "whisper", "tailPaddings"); got != tt.wantTail {
				t.Errorf("whisper.tailPaddings = %d, want %d", got, tt.wantTail)
			}
			if got := e.str("modelConfig", "whisper", "encoder"); got != tt.wantWhisper {
				t.Errorf("whisper.encoder = %q, want %q", got, tt.wantWhisper)
			}
			if got := e.i32("modelConfig", "canary", "usePnc"); got != tt.wantPnc {
				t.Errorf("canary.usePnc = %d, want %d", got, tt.wantPnc)
			}
			if got := e.str("modelConfig", "teleSpeechCtc"); got != tt.wantTele {
				t.Errorf("teleSpeechCtc = %q, want %q", got, tt.wantTele)
			}
			if got := e.i32("modelConfig", "senseVoice", "useInverseTextNormalization"); got != 0 {
				t.Errorf("senseVoice ITN = %d, want 0", got)
			}
			if got := e.f32("lmConfig", "scale"); got != 1 {
				t.Errorf("lm.scale = %v, want 1", got)
			}
			if got := e.str("decodingMethod"); got != "greedy_search" {
				t.Errorf("decodingMethod = %q", got)
			}
			if got := e.i32("modelConfig", "debug"); got != 1 {
				t.Errorf("debug = %d", got)
			}
		})
	}
}

func TestOnlineRecognizerConfig_NeedsTailPadding(t *testing.T) {
	tests := []struct {
		family OnlineModel
		name   string
		want   bool
	}{
		{name: "none"},
		{name: "transducer", family: &OnlineTransducer{}},
		{name: "paraformer", family: &OnlineParaformer{}, want: true},
		{name: "nemo ctc", family: &OnlineNemoCtc{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := OnlineRecognizerConfig{Model: OnlineModelConfig{Family: tt.family}}
			if got := cfg.NeedsTailPadding(); got != tt.want {
				t.Errorf("NeedsTailPadding = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSampleRate(t *testing.T) {
	if got := (OnlineRecognizerConfig{}).SampleRate(); got != 16000 {
		t.Errorf("online default = %d", got)
	}
	if got := (OfflineRecognizerConfig{Feat: FeatureConfig{SampleRate: 22050}}).SampleRate(); got != 22050 {
		t.Errorf("offline explicit = %d", got)
	}
}
