package transcribe

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/wippyai/sherpa-wasm/asr"
	"github.com/wippyai/sherpa-wasm/engine"
	"github.com/wippyai/sherpa-wasm/internal/enginetest"
	"github.com/wippyai/sherpa-wasm/resource"
)

var errBoom = errors.New("boom")

func heard(n int) string { return fmt.Sprintf("HEARD %d", n) }

func transducer() asr.OnlineRecognizerConfig {
	return asr.OnlineRecognizerConfig{
		Model: asr.OnlineModelConfig{
			Family: &asr.OnlineTransducer{Encoder: "e.onnx", Decoder: "d.onnx", Joiner: "j.onnx"},
			Tokens: "tokens.txt",
		},
		EnableEndpoint: true,
	}
}

func paraformer() asr.OnlineRecognizerConfig {
	return asr.OnlineRecognizerConfig{
		Model: asr.OnlineModelConfig{
			Family: &asr.OnlineParaformer{Encoder: "e.onnx", Decoder: "d.onnx"},
			Tokens: "tokens.txt",
		},
		EnableEndpoint: true,
	}
}

func newOnline(t *testing.T, fake *enginetest.Native, cfg asr.OnlineRecognizerConfig) *asr.OnlineRecognizer {
	t.Helper()
	rec, err := asr.NewOnlineRecognizer(context.Background(), fake, cfg, asr.WithTable(resource.NewTable()))
	if err != nil {
		t.Fatalf("NewOnlineRecognizer: %v", err)
	}
	t.Cleanup(func() { _ = rec.Free(context.Background()) })
	return rec
}

func TestStreaming_EndpointCommits(t *testing.T) {
	tests := []struct {
		name      string
		cfg       asr.OnlineRecognizerConfig
		wantFinal string
	}{
		{"transducer", transducer(), heard(3200)},
		{"paraformer pads on endpoint", paraformer(), heard(3200 + 16000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			fake := enginetest.New()
			fake.Script = heard
			fake.EndpointAfter = 2

			s := NewStreaming(newOnline(t, fake, tt.cfg))
			defer s.Close(ctx)

			chunk := make([]float32, 1600)
			u, err := s.Push(ctx, chunk, 16000)
			if err != nil {
				t.Fatalf("Push 1: %v", err)
			}
			if u.Partial != heard(1600) || len(u.Finals) != 0 || u.Endpoint {
				t.Fatalf("update 1 = %+v", u)
			}

			u, err = s.Push(ctx, chunk, 16000)
			if err != nil {
				t.Fatalf("Push 2: %v", err)
			}
			if !u.Endpoint || u.Partial != "" || len(u.Finals) != 1 || u.Finals[0] != tt.wantFinal {
				t.Fatalf("update 2 = %+v, want final %q", u, tt.wantFinal)
			}

			u, err = s.Push(ctx, chunk, 16000)
			if err != nil {
				t.Fatalf("Push 3: %v", err)
			}
			if u.Partial != heard(1600) {
				t.Errorf("partial after reset = %q", u.Partial)
			}

			want := fmt.Sprintf("0: %s\n1: %s\n", tt.wantFinal, heard(1600))
			if got := s.Display(); got != want {
				t.Errorf("Display = %q, want %q", got, want)
			}
		})
	}
}

func TestStreaming_FlushAndClear(t *testing.T) {
	ctx := context.Background()
	fake := enginetest.New()
	fake.Script = heard

	s := NewStreaming(newOnline(t, fake, transducer()))
	if _, err := s.Push(ctx, make([]float32, 800), 16000); err != nil {
		t.Fatalf("Push: %v", err)
	}
	u, err := s.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(u.Finals) != 1 || u.Finals[0] != heard(800) || u.Partial != "" {
		t.Errorf("flush update = %+v", u)
	}

	if _, err := s.Push(ctx, make([]float32, 400), 16000); err != nil {
		t.Fatalf("Push: %v", err)
	}
	s.Clear()
	if got := s.Display(); got != "0: "+heard(400)+"\n" {
		t.Errorf("Display after Clear = %q", got)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := s.Display(); got != "" {
		t.Errorf("Display after Reset = %q", got)
	}

	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if fake.Live() != 1 {
		t.Errorf("engine objects live = %d, want only the recognizer", fake.Live())
	}
	if fake.Mem.Live() != 0 {
		t.Errorf("heap allocations live = %d", fake.Mem.Live())
	}
	if err := s.Close(ctx); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestStreaming_FlushWithoutStream(t *testing.T) {
	fake := enginetest.New()
	s := NewStreaming(newOnline(t, fake, transducer()))
	u, err := s.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if u.Partial != "" || len(u.Finals) != 0 {
		t.Errorf("update = %+v", u)
	}
	if fake.Calls[engine.FnCreateOnlineStream] != 0 {
		t.Error("Flush created a stream")
	}
}

func TestStreaming_PushError(t *testing.T) {
	fake := enginetest.New()
	fake.Fail = map[string]error{engine.FnDecodeOnlineStream: errBoom}
	s := NewStreaming(newOnline(t, fake, transducer()))
	defer s.Close(context.Background())

	if _, err := s.Push(context.Background(), make([]float32, 10), 16000); !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want errBoom", err)
	}
}

func TestFormatLines(t *testing.T) {
	tests := []struct {
		name    string
		finals  []string
		partial string
		want    string
	}{
		{"empty", nil, "", ""},
		{"partial only", nil, "hi", "0: hi\n"},
		{"skips empty finals", []string{"a", "", "b"}, "", "0: a\n1: b\n"},
		{"finals and partial", []string{"a"}, "c", "0: a\n1: c\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatLines(tt.finals, tt.partial); got != tt.want {
				t.Errorf("FormatLines = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileRecognizer_Recognize(t *testing.T) {
	tests := []struct {
		name        string
		cfg         asr.OnlineRecognizerConfig
		samples     int
		wantText    string
		wantAccepts int
	}{
		{"chunks", transducer(), 10000, heard(10000), 3},
		{"exact chunk", transducer(), 4096, heard(4096), 1},
		{"paraformer tail padding", paraformer(), 10000, heard(10000 + 16000), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			fake := enginetest.New()
			fake.Script = heard
			f := NewFileRecognizer(newOnline(t, fake, tt.cfg))

			res, err := f.Recognize(ctx, make([]float32, tt.samples), 16000)
			if err != nil {
				t.Fatalf("Recognize: %v", err)
			}
			if res.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", res.Text, tt.wantText)
			}
			if got := fake.Calls[engine.FnOnlineStreamAcceptWaveform]; got != tt.wantAccepts {
				t.Errorf("accept calls = %d, want %d", got, tt.wantAccepts)
			}
			if fake.Calls[engine.FnOnlineStreamInputFinished] != 1 {
				t.Error("input not finished")
			}
			if fake.Live() != 1 || fake.Mem.Live() != 0 {
				t.Errorf("leak: engine objects %d, heap %d", fake.Live(), fake.Mem.Live())
			}
		})
	}
}

func TestFileRecognizer_FreesStreamOnError(t *testing.T) {
	fake := enginetest.New()
	fake.Fail = map[string]error{engine.FnOnlineStreamAcceptWaveform: errBoom}
	f := NewFileRecognizer(newOnline(t, fake, transducer()))

	if _, err := f.Recognize(context.Background(), make([]float32, 100), 16000); !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want errBoom", err)
	}
	if fake.Calls[engine.FnDestroyOnlineStream] != 1 {
		t.Error("stream not destroyed")
	}
	if fake.Live() != 1 || fake.Mem.Live() != 0 {
		t.Errorf("leak: engine objects %d, heap %d", fake.Live(), fake.Mem.Live())
	}
}

func TestFileRecognizer_Transcribe(t *testing.T) {
	ctx := context.Background()
	fake := enginetest.New()
	fake.Offline = true
	fake.Script = func(int) string { return "two words" }

	f := NewFileRecognizer(newOnline(t, fake, transducer()))
	tr, err := f.Transcribe(ctx, make([]float32, 100), 16000)
	if err != nil {
		t.Fatalf("Transcribe online: %v", err)
	}
	if tr.Mode != "online" || tr.Text != "two words" {
		t.Errorf("online transcript = %+v", tr)
	}

	off, err := asr.NewOfflineRecognizer(ctx, fake, asr.OfflineRecognizerConfig{
		Model: asr.OfflineModelConfig{
			Family: &asr.OfflineSenseVoice{Model: "m.onnx"},
			Tokens: "tokens.txt",
		},
	}, asr.WithTable(resource.NewTable()))
	if err != nil {
		t.Fatalf("NewOfflineRecognizer: %v", err)
	}
	defer off.Free(ctx)

	tr, err = f.WithOffline(off).Transcribe(ctx, make([]float32, 100), 16000)
	if err != nil {
		t.Fatalf("Transcribe offline: %v", err)
	}
	if tr.Mode != "offline" || len(tr.Tokens) != 2 || len(tr.Timestamps) != 2 {
		t.Errorf("offline transcript = %+v", tr)
	}
	if fake.Calls[engine.FnDecodeOfflineStream] != 1 {
		t.Error("offline decode not called")
	}
}

func TestFileRecognizer_NotInitialized(t *testing.T) {
	f := &FileRecognizer{}
	if _, err := f.Recognize(context.Background(), nil, 16000); err == nil {
		t.Error("Recognize without recognizer succeeded")
	}
	if _, err := f.RecognizeOffline(context.Background(), nil, 16000); err == nil {
		t.Error("RecognizeOffline without recognizer succeeded")
	}
}
